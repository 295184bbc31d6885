// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// sizeVectorRecord returns the encoded size of record.
func sizeVectorRecord(record *VectorRecord) int {
	size := ord.String.Size(record.Text)
	size += varint.Int.Size(len(record.Vector))
	for _, f := range record.Vector {
		size += raw.Float32.Size(f)
	}
	return size
}

// MarshalVectorRecord serializes a VectorRecord to bytes.
// Layout: text, dimension count, then each component.
func MarshalVectorRecord(record *VectorRecord) []byte {
	buf := make([]byte, sizeVectorRecord(record))
	n := ord.String.Marshal(record.Text, buf)
	n += varint.Int.Marshal(len(record.Vector), buf[n:])
	for _, f := range record.Vector {
		n += raw.Float32.Marshal(f, buf[n:])
	}
	return buf[:n]
}

// UnmarshalVectorRecord deserializes a VectorRecord from bytes.
func UnmarshalVectorRecord(data []byte) (*VectorRecord, error) {
	text, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: text: %v", ErrSerializationFailed, err)
	}
	dims, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: dimensions: %v", ErrSerializationFailed, err)
	}
	n += m
	if dims < 0 {
		return nil, fmt.Errorf("%w: negative dimensions %d", ErrSerializationFailed, dims)
	}
	// float32 components are fixed width
	if len(data)-n < dims*4 {
		return nil, fmt.Errorf("%w: want %d components", ErrTruncatedData, dims)
	}

	vector := make([]float32, dims)
	for i := range vector {
		vector[i], m, err = raw.Float32.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: component %d: %v", ErrSerializationFailed, i, err)
		}
		n += m
	}
	return &VectorRecord{Text: text, Vector: vector}, nil
}
