// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package workflow_test contains tests for the worker pipelines. This file,
// `base_test.go`, provides the shared setup for all tests in the package via
// the special `TestMain` function. The suite runs without GCP credentials:
// it loads the test configuration and logging only, and individual tests
// construct pipelines over an empty client set.
package workflow_test

import (
	"context"
	"os"
	"testing"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/hooplight/gcp-go-hoops-highlights/internal/cloud"
	"github.com/hooplight/gcp-go-hoops-highlights/internal/telemetry"
	test "github.com/hooplight/gcp-go-hoops-highlights/internal/testutil"
)

// Shared resources, initialized once in TestMain and used by every test
// file in the package.
var (
	ctx    context.Context // The root context for all tests in the suite.
	config *cloud.Config   // The application configuration loaded from test files.
)

const tName = "github.com/hooplight/gcp-go-hoops-highlights/tests/workflow"

var logger = otelslog.NewLogger(tName)

// TestMain runs before any other test in this package. It loads the test
// configuration and initializes logging, then executes the suite.
//
// Inputs:
//   - m: A pointer to testing.M, which provides access to the test suite and allows
//     running the tests via m.Run().
func TestMain(m *testing.M) {
	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	// Load application configuration from test-specific files (`.env.test.toml`).
	config = test.GetConfig()

	telemetry.SetupLogging()
	logger.Info("completed test setup")

	os.Exit(m.Run())
}
