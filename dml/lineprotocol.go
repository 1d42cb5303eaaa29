// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package dml

import (
	"fmt"
	"time"

	"github.com/ClusterCockpit/cc-line-protocol/v2/lineprotocol"
)

// ParseLineProtocol decodes line-protocol text into a Write whose tables are
// keyed by measurement name, one row per line. defaultTime is used for any
// line that omits an explicit timestamp. This backs the write buffer's
// store_lp convenience entry point and is primarily intended for testing,
// exactly as distilled spec §4.1 describes.
func ParseLineProtocol(namespace, text string, defaultTime time.Time) (*Write, error) {
	dec := lineprotocol.NewDecoderWithBytes([]byte(text))

	tables := make(map[string]TableBatch)

	for dec.Next() {
		measurement, err := dec.Measurement()
		if err != nil {
			return nil, fmt.Errorf("dml: parse line protocol: %w", err)
		}
		name := string(measurement)

		tags := make(map[string]string)
		for {
			key, val, err := dec.NextTag()
			if err != nil {
				return nil, fmt.Errorf("dml: parse line protocol: %w", err)
			}
			if key == nil {
				break
			}
			tags[string(key)] = string(val)
		}

		fields := make(map[string]any)
		for {
			key, val, err := dec.NextField()
			if err != nil {
				return nil, fmt.Errorf("dml: parse line protocol: %w", err)
			}
			if key == nil {
				break
			}

			switch val.Kind() {
			case lineprotocol.Float:
				fields[string(key)] = val.FloatV()
			case lineprotocol.Int:
				fields[string(key)] = val.IntV()
			case lineprotocol.Uint:
				fields[string(key)] = val.UintV()
			case lineprotocol.String:
				fields[string(key)] = val.StringV()
			case lineprotocol.Bool:
				fields[string(key)] = val.BoolV()
			default:
				return nil, fmt.Errorf("dml: parse line protocol: unsupported field kind %s", val.Kind())
			}
		}

		ts, err := dec.Time(lineprotocol.Nanosecond, defaultTime)
		if err != nil {
			return nil, fmt.Errorf("dml: parse line protocol: %w", err)
		}

		batch := tables[name]
		batch.Rows = append(batch.Rows, Row{Tags: tags, Fields: fields, Time: ts})
		tables[name] = batch
	}
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("dml: parse line protocol: %w", err)
	}

	return NewWrite(namespace, tables, Meta{}), nil
}
