// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package display renders supervisor data for humans: the instance table,
// status lines and the live console echo of instance output.
package display
