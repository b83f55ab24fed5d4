// Copyright 2025 walteh LLC
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

package log

import (
	"fmt"

	"github.com/pterm/pterm"
)

// 🎨 FileChangeType classifies what the transfer did to one file.
type FileChangeType int

const (
	FileAdded FileChangeType = iota
	FileUpdated
	FileDeleted
	FileExcluded
)

// 🖼️ FileChange is one user-visible file event.
type FileChange struct {
	Type FileChangeType
	Path string
}

// 📝 LogFileChange prints a file change with its prefix printer and mirrors it
// into the structured log.
func (l *Logger) LogFileChange(change FileChange) {
	var action string
	var printer *pterm.PrefixPrinter
	switch change.Type {
	case FileAdded:
		action = "Added"
		printer = pterm.Success.WithPrefix(pterm.Prefix{Text: "✨"})
	case FileUpdated:
		action = "Updated"
		printer = pterm.Info.WithPrefix(pterm.Prefix{Text: "🔄"})
	case FileDeleted:
		action = "Deleted"
		printer = pterm.Warning.WithPrefix(pterm.Prefix{Text: "🗑️"})
	case FileExcluded:
		action = "Excluded"
		printer = pterm.Description.WithPrefix(pterm.Prefix{Text: "⏭️"})
	}

	msg := fmt.Sprintf("%s %s", action, change.Path)
	printer.WithWriter(l.console).Println(msg)
	l.zlog.Info().Str("path", change.Path).Str("action", action).Msg("file change")
}
