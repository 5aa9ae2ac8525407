// Package applypatch produces textual patches from diffs and applies them to files, separating hunks that apply from hunks that do not.
package applypatch
