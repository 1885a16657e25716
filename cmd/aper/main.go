package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/thebagchi/aper"
	"github.com/thebagchi/aper/lib/bitbuffer"
	"github.com/thebagchi/aper/lib/per"
)

func main() {
	var (
		filename = flag.String("schema", "", "TOML schema file")
		encode   = flag.String("encode", "", "TOML file of field values to encode")
		decode   = flag.String("decode", "", "hex message to decode")
		verbose  = flag.Bool("verbose", false, "log codec failures")
		tracing  = flag.Bool("trace", false, "log every bit buffer primitive")
	)
	flag.Parse()
	if len(*filename) == 0 {
		fmt.Println("Error: ", "schema file required ...")
		os.Exit(1)
	}
	if (len(*encode) == 0) == (len(*decode) == 0) {
		fmt.Println("Error: ", "exactly one of -encode or -decode required ...")
		os.Exit(1)
	}

	if *verbose || *tracing {
		logger, err := zap.NewDevelopment()
		if nil != err {
			fmt.Println("Error: ", err)
			os.Exit(1)
		}
		defer logger.Sync()
		per.SetLogger(logger)
		if *tracing {
			bitbuffer.SetTraceLogger(logger.Named("bitbuffer"))
			bitbuffer.EnableTrace = true
		}
	}

	schema, err := aper.Parse(*filename)
	if nil != err {
		fmt.Println("Error: ", err)
		os.Exit(1)
	}

	if len(*encode) > 0 {
		err = encodeValues(schema, *encode)
	} else {
		err = decodeMessage(schema, *decode)
	}
	if nil != err {
		fmt.Println("Error: ", err)
		os.Exit(1)
	}
}

// encodeValues encodes the key/value pairs of a TOML file and prints the
// message as hex.
func encodeValues(schema *aper.Schema, filename string) error {
	values := make(map[string]any)
	if _, err := toml.DecodeFile(filename, &values); err != nil {
		return fmt.Errorf("load values %s: %w", filename, err)
	}
	data, err := schema.Encode(values)
	if err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(data))
	return nil
}

// decodeMessage decodes a hex message and prints its fields as TOML, in
// schema order.
func decodeMessage(schema *aper.Schema, text string) error {
	data, err := hex.DecodeString(strings.Join(strings.Fields(text), ""))
	if err != nil {
		return fmt.Errorf("decode hex: %w", err)
	}
	values, err := schema.Decode(data)
	if err != nil {
		return err
	}
	encoder := toml.NewEncoder(os.Stdout)
	for _, v := range values {
		if err := encoder.Encode(map[string]any{v.Name: v.Value}); err != nil {
			return err
		}
	}
	return nil
}
