// Package statichttp реализует HTTP-интерфейс файлового сервера поверх staticfile.
// Основные эндпоинты:
//   - GET|HEAD {mount_prefix}/* — отдаёт файлы из корня с поддержкой условных запросов и Range.
//   - GET /health — проверяет доступность корня и отдаёт суммарный размер файлов.
//
// Все запросы проходят через RequestID, журнал доступа и Recoverer из chi.
package statichttp
