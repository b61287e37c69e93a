package codec_test

import (
	"bytes"
	"fmt"
	"log"

	"github.com/ssargent/cerberus/pkg/codec"
	"github.com/ssargent/cerberus/pkg/discriminator"
)

// Counter is a fixed-size value.
type Counter struct {
	N int32
}

func (c *Counter) WritePayload(w *codec.Writer) error { return w.WriteInt32(c.N) }
func (c *Counter) ByteSize() int64                    { return 4 }
func (c *Counter) FinalSize() int64                   { return 4 }

var counterBuilder = codec.NewBuilder("counter", false, 4, func(r *codec.Reader, _ string) (codec.Value, error) {
	n, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	return &Counter{N: n}, nil
})

// Field is a tag-bearing value of variable size.
type Field struct {
	Name  string
	Value string
}

func (f *Field) Tag() string                        { return f.Name }
func (f *Field) WritePayload(w *codec.Writer) error { return w.WriteUTF(f.Value) }
func (f *Field) ByteSize() int64                    { return codec.UTFSize(f.Value) }
func (f *Field) FinalSize() int64                   { return -1 }

var fieldBuilder = codec.NewBuilder("field", true, -1, func(r *codec.Reader, tag string) (codec.Value, error) {
	s, err := r.ReadUTF()
	if err != nil {
		return nil, err
	}
	return &Field{Name: tag, Value: s}, nil
})

func exampleRegistry() *discriminator.Registry {
	reg := discriminator.New()
	if err := reg.Register(&Counter{}, counterBuilder, 7); err != nil {
		log.Fatal(err)
	}
	if err := reg.Register(&Field{}, fieldBuilder, 8); err != nil {
		log.Fatal(err)
	}
	return reg
}

func ExampleCodec_Encode() {
	c := codec.New(exampleRegistry())

	data, err := c.Encode(&Counter{N: 42})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("% X\n", data)

	v, err := c.Decode(data)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(v.(*Counter).N)

	// Output:
	// 00 07 00 00 00 2A
	// 42
}

func ExampleReader_ReadValue() {
	c := codec.New(exampleRegistry())

	var out bytes.Buffer
	sw := codec.NewStreamWriter(&out)
	w := c.NewWriter(sw)
	for _, v := range []codec.Value{&Field{Name: "host", Value: "db1"}, nil, &Counter{N: 3}} {
		if err := w.WriteValue(v); err != nil {
			log.Fatal(err)
		}
	}
	if err := sw.Flush(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("bytes:", out.Len())

	r := c.NewReader(codec.NewStreamReader(&out))
	for i := 0; i < 3; i++ {
		v, err := r.ReadValue()
		if err != nil {
			log.Fatal(err)
		}
		switch v := v.(type) {
		case *Field:
			fmt.Printf("field %s=%s\n", v.Name, v.Value)
		case *Counter:
			fmt.Printf("counter %d\n", v.N)
		case nil:
			fmt.Println("absent")
		}
	}

	// Output:
	// bytes: 29
	// field host=db1
	// absent
	// counter 3
}

func Example_unknownDiscriminator() {
	c := codec.New(exampleRegistry())

	// Code 99 is not registered; its frame is still skippable.
	data := []byte{0x00, 0x63, 0, 0, 0, 0, 0, 0, 0, 0x02, 0xAA, 0xBB, 0x00, 0x07, 0, 0, 0, 5}
	r := c.NewReader(codec.WrapBuffer(data))

	_, err := r.ReadValue()
	fmt.Println(codec.IsUnknownDiscriminator(err))

	v, err := r.ReadValue()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(v.(*Counter).N)

	// Output:
	// true
	// 5
}
