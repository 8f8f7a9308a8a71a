// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import "path"

// Path is a URL path made of static segments.
type Path []string

// BasePath starts a Path at s.
func BasePath(s string) Path {
	return Path{s}
}

// Segment appends s to the Path.
func (p Path) Segment(s string) Path {
	return append(p[:len(p):len(p)], s)
}

// String joins the segments into an absolute, cleaned path.
func (p Path) String() string {
	return path.Join(append([]string{"/"}, p...)...)
}
