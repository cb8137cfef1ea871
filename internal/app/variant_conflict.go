// SPDX-License-Identifier: MIT

//go:build pitch && novelty

package app

// The pitch and novelty tags each select a variant; build with at most one.
var _ = pitchAndNoveltyBuildTagsAreMutuallyExclusive
