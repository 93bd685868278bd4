// Velaris - terminal chat with the content creation agent.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/uandersonal11/viralfy-v3/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
