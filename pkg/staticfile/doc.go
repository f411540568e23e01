// Package staticfile отдаёт файлы из каталога по HTTP: разрешает путь запроса внутри
// корня, проверяет условные заголовки, разбирает Range и потоково отдаёт тело
// (целиком, одним диапазоном или multipart/byteranges).
//
// Конвейер одного запроса:
//
//	Resolver.Resolve -> Validate / EvalIfRange -> RangeParser.Parse -> Builder.Build -> WriteResponse
//
// Static собирает эти шаги в http.Handler.
package staticfile
