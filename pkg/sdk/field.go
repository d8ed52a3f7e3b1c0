package entsearch

// Field describes one mapped field of an entity.
type Field struct {
	Name     string
	Type     string
	Boost    float64
	Required bool
}

// TextField is an analyzed field matched by the free-text term with the given boost.
func TextField(name string, boost float64) Field {
	return Field{Name: name, Type: "text", Boost: boost}
}

// KeywordField is an exact-match string field.
func KeywordField(name string) Field {
	return Field{Name: name, Type: "keyword"}
}

// NumericField is a numeric field.
func NumericField(name string) Field {
	return Field{Name: name, Type: "numeric"}
}

// DateField is a date field. Range bounds are epoch milliseconds.
func DateField(name string) Field {
	return Field{Name: name, Type: "date"}
}

// BooleanField is a boolean field.
func BooleanField(name string) Field {
	return Field{Name: name, Type: "boolean"}
}

// AsRequired marks the field as present on every document.
func (f Field) AsRequired() Field {
	f.Required = true
	return f
}

// WithBoost makes the field searchable by the free-text term.
func (f Field) WithBoost(boost float64) Field {
	f.Boost = boost
	return f
}
