package main

import "kidsbook_backend/internal/app"

func main() {
	app.Run()
}
