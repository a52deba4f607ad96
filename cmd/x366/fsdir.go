// This file is part of x366 - https://github.com/x366vm/x366
//
// Copyright 2026 The x366 Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// dirFS serves guest READ_FILE requests from a single directory. Guest
// paths must stay inside it: absolute paths and ".." segments are
// rejected.
type dirFS string

func (d dirFS) ReadFile(name string) ([]byte, error) {
	if name == "" || filepath.IsAbs(name) {
		return nil, errors.Errorf("invalid path %q", name)
	}
	clean := filepath.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return nil, errors.Errorf("path %q escapes program directory", name)
	}
	b, err := os.ReadFile(filepath.Join(string(d), clean))
	return b, errors.Wrap(err, "read failed")
}
