// Package io2 declares no interfaces in this file.
package io2
