// Package conv provides overflow-checked integer conversions.
//
// Wire lengths and slot indices cross between int, uint16, uint32 and
// uint64 representations; these helpers make every narrowing conversion
// explicit and fallible instead of silently truncating.
package conv
