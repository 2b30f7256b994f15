// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// The level is read from an environment variable named after the executable,
// so a binary called herd honours HERD_LOG_LEVEL (DEBUG, INFO, WARN, ERROR).
// Anything else means WARN.
//
// The default handler is a pretty console handler that prints the instance
// attribute as a coloured prefix, which keeps supervisor logs readable next to
// the live output of the supervised processes.
package ctxlog
