// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package teereader provides a pass-through reader that remembers the last
// complete line it has seen. Supervised processes can run for months, so
// unlike a plain tee nothing but that line and the current partial line is
// retained, and the partial line is capped.
package teereader
