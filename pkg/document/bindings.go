// Package document provides the scalar values and containers that trace
// chains operate on. Every type is a codec.Value; the containers expose
// the capability interfaces in capability.go so trace nodes can test for
// what a container supports instead of its concrete type.
package document

import (
	"github.com/ssargent/cerberus/pkg/codec"
	"github.com/ssargent/cerberus/pkg/discriminator"
)

// Discriminators of the document types.
const (
	IntCode    codec.Discriminator = 1
	LongCode   codec.Discriminator = 2
	DoubleCode codec.Discriminator = 3
	BoolCode   codec.Discriminator = 4
	TextCode   codec.Discriminator = 5
	BytesCode  codec.Discriminator = 6

	MapCode  codec.Discriminator = 16
	ListCode codec.Discriminator = 17
	SetCode  codec.Discriminator = 18
	DocCode  codec.Discriminator = 19
	TagCode  codec.Discriminator = 20
)

// Bindings returns the registrations of every document type.
func Bindings() []discriminator.Binding {
	return []discriminator.Binding{
		{Proto: Int(0), Builder: intBuilder, Code: IntCode},
		{Proto: Long(0), Builder: longBuilder, Code: LongCode},
		{Proto: Double(0), Builder: doubleBuilder, Code: DoubleCode},
		{Proto: Bool(false), Builder: boolBuilder, Code: BoolCode},
		{Proto: Text(""), Builder: textBuilder, Code: TextCode},
		{Proto: Bytes{}, Builder: bytesBuilder, Code: BytesCode},
		{Proto: &Map{}, Builder: mapBuilder, Code: MapCode},
		{Proto: &List{}, Builder: listBuilder, Code: ListCode},
		{Proto: &Set{}, Builder: setBuilder, Code: SetCode},
		{Proto: &Doc{}, Builder: docBuilder, Code: DocCode},
		{Proto: &Tag{}, Builder: tagBuilder, Code: TagCode},
	}
}

// Register binds every document type in reg.
func Register(reg *discriminator.Registry) error {
	return reg.RegisterAll(Bindings()...)
}
