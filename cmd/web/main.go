package main

import "jobatlas_backend/internal/app"

func main() {
	app.Run()
}
