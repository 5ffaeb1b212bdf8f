// Copyright 2019 The Metrics Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"fmt"
	"strings"
)

// A Label is a key/value pair used to further describe a metric. Labels are
// immutable once constructed; equality is structural on both fields.
type Label struct {
	name  string
	value string
}

// NewLabel creates a Label from a name and value.
func NewLabel(name, value string) Label {
	return Label{name: name, value: value}
}

// Name returns the label name.
func (l Label) Name() string { return l.name }

// Value returns the label value.
func (l Label) Value() string { return l.value }

// A Key is the identity of a single time series: a name, optionally refined
// by an ordered sequence of labels. Keys are immutable after construction.
//
// Label order is significant for equality: two keys carrying the same labels
// in different orders address different series. Labels are exposed for
// iteration in their original order and are never sorted.
type Key struct {
	name   string
	labels []Label
}

// NewKey creates a Key with no labels.
func NewKey(name string) Key {
	return Key{name: name}
}

// NewKeyWithLabels creates a Key with the given ordered label sequence. An
// empty sequence is normalized to the no-labels state, so a key built from an
// empty slice is indistinguishable from one built with NewKey.
func NewKeyWithLabels(name string, labels []Label) Key {
	if len(labels) == 0 {
		return Key{name: name}
	}
	ls := make([]Label, len(labels))
	copy(ls, labels)
	return Key{name: name, labels: ls}
}

// Name returns the key's name.
func (k Key) Name() string { return k.name }

// Labels returns a copy of the key's labels in their original order, or nil
// if the key has none. Mutating the returned slice does not affect the key.
func (k Key) Labels() []Label {
	if len(k.labels) == 0 {
		return nil
	}
	ls := make([]Label, len(k.labels))
	copy(ls, k.labels)
	return ls
}

// HasLabels reports whether the key carries any labels.
func (k Key) HasLabels() bool { return len(k.labels) > 0 }

// MapName returns a new Key whose name is f applied to this key's name, with
// the labels carried over unchanged. Useful for namespace prefixing.
func (k Key) MapName(f func(string) string) Key {
	return Key{name: f(k.name), labels: k.labels}
}

// Equal reports whether both keys have the same name and the same labels in
// the same order.
func (k Key) Equal(o Key) bool {
	if k.name != o.name || len(k.labels) != len(o.labels) {
		return false
	}
	for i, l := range k.labels {
		if l != o.labels[i] {
			return false
		}
	}
	return true
}

// String implements Stringer. The format is diagnostic only and is not the
// exposition wire format.
func (k Key) String() string {
	if len(k.labels) == 0 {
		return fmt.Sprintf("Key(%s)", k.name)
	}
	pairs := make([]string, 0, len(k.labels))
	for _, l := range k.labels {
		pairs = append(pairs, fmt.Sprintf("%s = %s", l.name, l.value))
	}
	return fmt.Sprintf("Key(%s, [%s])", k.name, strings.Join(pairs, ", "))
}
