package main

import (
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/app"
)

func main() {
	app.Execute()
}
