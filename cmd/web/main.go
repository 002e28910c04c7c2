package main

import "masterplace_backend/internal/app"

func main() {
	app.Run()
}
