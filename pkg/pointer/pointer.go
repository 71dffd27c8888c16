package pointer

// String returns a pointer to the provided string value
func String(value string) *string {
	return &value
}

// StringIfValid returns a pointer to the value if it's valid, otherwise nil
func StringIfValid(valid bool, value string) *string {
	if valid {
		return &value
	}
	return nil
}

// StringCopy returns a pointer that's a copy of the provided value
func StringCopy(value *string) *string {
	if value == nil {
		return nil
	}

	return String(*value)
}

// Uint8 returns a pointer to the provided uint8 value
func Uint8(value uint8) *uint8 {
	return &value
}

// Uint64 returns a pointer to the provided uint64 value
func Uint64(value uint64) *uint64 {
	return &value
}

// Uint64Copy returns a pointer that's a copy of the provided value
func Uint64Copy(value *uint64) *uint64 {
	if value == nil {
		return nil
	}

	return Uint64(*value)
}
