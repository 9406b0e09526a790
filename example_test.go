package flatproto_test

import (
	"fmt"
	"log"
	"strings"

	"github.com/anirudhraja/flatproto"
	"github.com/anirudhraja/flatproto/value"
)

func ExampleCodec() {
	p, err := flatproto.New()
	if err != nil {
		log.Fatal(err)
	}
	src := `syntax = "proto3";
package example;

message ExampleMsg {
  string example_field = 1;
}`
	if err := p.LoadProto(strings.NewReader(src), "example.proto"); err != nil {
		log.Fatal(err)
	}
	c, err := p.Codec("ExampleMsg")
	if err != nil {
		log.Fatal(err)
	}

	msg, err := c.Create(value.Value{"exampleField": "hello"})
	if err != nil {
		log.Fatal(err)
	}
	b, err := c.Encode(msg)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("% x\n", b)

	back, err := c.Decode(b)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(c.Text(back))

	js, err := c.JSON(back)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(js))
	// Output:
	// 0a 05 68 65 6c 6c 6f
	// ExampleMsg { example_field: "hello" }
	// {"exampleField":"hello"}
}
