// Package textutil sanitizes titles for use as file and directory names.
package textutil
