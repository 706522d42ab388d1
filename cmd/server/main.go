package main

import (
	"log"

	"github.com/tuanngo/shopcms"
)

func main() {
	application, err := shopcms.New().WithAutoConfig().Build()
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	application.Run()
}
