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

package rsync

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/syncrc/pkg/filter"
)

// 🧾 commandDump is the diagnostic JSON artifact describing one prepared
// transfer command.
type commandDump struct {
	Timestamp string     `json:"timestamp"`
	Src       string     `json:"src"`
	Dst       string     `json:"dst"`
	Opts      []string   `json:"opts"`
	Cmd       []string   `json:"cmd"`
	SrcFilter filterDump `json:"src_filter"`
	DstFilter filterDump `json:"dst_filter"`
}

type filterDump struct {
	Path  string   `json:"path"`
	Lines []string `json:"lines"`
}

func newFilterDump(a *filter.Artifact) filterDump {
	if a == nil {
		return filterDump{Lines: []string{}}
	}
	return filterDump{Path: a.Path, Lines: a.Lines}
}

// writeCommandDump writes the dump artifact. Failures are warnings: the dump
// is diagnostics, never a reason to abort a transfer.
func writeCommandDump(ctx context.Context, path, src, dst string, opts, cmd []string, srcFilter, dstFilter *filter.Artifact) {
	logger := zerolog.Ctx(ctx)

	payload := commandDump{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Src:       src,
		Dst:       dst,
		Opts:      opts,
		Cmd:       cmd,
		SrcFilter: newFilterDump(srcFilter),
		DstFilter: newFilterDump(dstFilter),
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		logger.Warn().Err(err).Msg("marshaling command dump")
		return
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("writing command dump")
		return
	}

	logger.Info().Str("path", path).Msg("wrote command dump")
}
