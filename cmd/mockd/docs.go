package main

// General API documentation for swaggo. Run `swag init -g cmd/mockd/main.go`
// and build with -tags=swagger to serve the UI at /docs/.
//
// @title           mockd API
// @version         1.0
// @description     OpenAI-compatible mock chat completion server for offline development.
//
// @BasePath  /
//
// @schemes http
