package app

import (
	"os"
	"strconv"
	"sync"
)

// TestModeEnv makes the binaries return before dialing any backend when it
// parses as true. The root testing package sets it for every test binary.
const TestModeEnv = "MOCKROUND_TEST_MODE"

var testMode struct {
	sync.Mutex
	loaded bool
	on     bool
}

// InTestMode reports whether startup side effects should be skipped.
func InTestMode() bool {
	testMode.Lock()
	defer testMode.Unlock()
	if !testMode.loaded {
		testMode.on, testMode.loaded = testModeFromEnv(), true
	}
	return testMode.on
}

// RefreshTestMode re-reads TestModeEnv after the environment changed.
func RefreshTestMode() {
	testMode.Lock()
	defer testMode.Unlock()
	testMode.on, testMode.loaded = testModeFromEnv(), true
}

func testModeFromEnv() bool {
	on, _ := strconv.ParseBool(os.Getenv(TestModeEnv))
	return on
}
