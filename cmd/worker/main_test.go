package main

import (
	stdtesting "testing"

	"github.com/mockround/mockround/internal/app"
	_ "github.com/mockround/mockround/testing"
)

func TestMainSkipsStartupInTestMode(t *stdtesting.T) {
	app.RefreshTestMode()
	if !app.InTestMode() {
		t.Fatal("expected test mode to be active")
	}
	main()
}
