// Copyright (C) 2025 clearbook-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetReportsPlatform(t *testing.T) {
	info := Get()

	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.GoVersion == "" {
		t.Error("GoVersion should not be empty")
	}

	expectedPlatform := runtime.GOOS + "/" + runtime.GOARCH
	if info.Platform != expectedPlatform {
		t.Errorf("expected platform %s, got %s", expectedPlatform, info.Platform)
	}
}

func TestStringIncludesCommitWhenSet(t *testing.T) {
	origVersion, origCommit, origBranch, origDate := Version, GitCommit, GitBranch, BuildDate
	defer func() { Version, GitCommit, GitBranch, BuildDate = origVersion, origCommit, origBranch, origDate }()

	Version, GitCommit, GitBranch, BuildDate = "1.0.0", "", "", ""
	if !strings.Contains(String(), "1.0.0") {
		t.Errorf("String should contain version 1.0.0, got: %s", String())
	}

	Version, GitCommit, GitBranch, BuildDate = "1.0.0", "abcdef1234567890", "main", "2026-07-30"
	str := String()
	if !strings.Contains(str, "abcdef1") || !strings.Contains(str, "main") {
		t.Errorf("String should contain commit prefix and branch, got: %s", str)
	}
}

func TestShortAppendsCommitPrefix(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version, GitCommit = "1.0.0", ""
	if Short() != "1.0.0" {
		t.Errorf("expected '1.0.0', got '%s'", Short())
	}

	Version, GitCommit = "1.0.0", "abcdef1234567890"
	if Short() != "1.0.0-abcdef1" {
		t.Errorf("expected '1.0.0-abcdef1', got '%s'", Short())
	}
}

func TestUserAgentIncludesShortVersion(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version, GitCommit = "1.0.0", ""
	if UserAgent() != "clearbook-probe/1.0.0" {
		t.Errorf("expected 'clearbook-probe/1.0.0', got '%s'", UserAgent())
	}
}

func TestGetModuleVersionDoesNotPanic(t *testing.T) {
	if GetModuleVersion() == "" {
		t.Error("GetModuleVersion should not return empty string")
	}
}
