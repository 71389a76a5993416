// Copyright 2024 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package guides

import "fmt"

// Severity classifies a [Diagnostic].
type Severity uint8

const (
	// Warning marks recoverable problems:
	// the parser resynchronized and the output is still usable.
	Warning Severity = 1 + iota
	// Error marks content that was dropped from the tree.
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", uint8(s))
	}
}

// A Diagnostic is a problem found in a document's content.
// Diagnostics never stop parsing.
type Diagnostic struct {
	File     string
	Line     int
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	switch {
	case d.File != "" && d.Line > 0:
		return fmt.Sprintf("%s:%d: %v: %s", d.File, d.Line, d.Severity, d.Message)
	case d.File != "":
		return fmt.Sprintf("%s: %v: %s", d.File, d.Severity, d.Message)
	default:
		return fmt.Sprintf("%v: %s", d.Severity, d.Message)
	}
}
