// Command linkfy serves the signed-in user's previously shortened links page.
package main

import (
	"log"

	"github.com/patric-chuzhbe/linkfy/internal/app"
)

func main() {
	theApp, err := app.New()
	if err != nil {
		log.Fatalf("unable to initialize the app: %v", err)
	}
	defer theApp.Close()

	if err := theApp.Run(); err != nil {
		log.Printf("the app stopped with error: %v", err)
	}
}
