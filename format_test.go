package babylon

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFor(t *testing.T) {
	cases := []struct {
		path string
		want Format
	}{
		{"i18n/common.properties", PropertiesFormat{}},
		{"i18n/common.PROPERTIES", PropertiesFormat{}},
		{"locales/en.yaml", YAMLFormat{}},
		{"locales/en.yml", YAMLFormat{}},
		{"web/i18n/shop.ts", TSFormat{}},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			f, err := FormatFor(tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, f)
			assert.True(t, SupportedExtension(tc.path))
		})
	}

	_, err := FormatFor("messages.json")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.False(t, SupportedExtension("README"))
}

func TestPropertiesFormat_DecodeKeepsFileOrder(t *testing.T) {
	data := []byte("# header\nzeta=Last letter\nalpha = First\nunicode=Příklad\nref=${alpha}\n")

	msgs, err := PropertiesFormat{}.Decode(data)

	require.NoError(t, err)
	assert.Equal(t, []MessageKey{"zeta", "alpha", "unicode", "ref"}, msgs.Keys())
	v, _ := msgs.Get("unicode")
	assert.Equal(t, "Příklad", *v)
	v, _ = msgs.Get("ref")
	assert.Equal(t, "${alpha}", *v, "expressions are not expanded")
}

func TestPropertiesFormat_EncodeRoundTrip(t *testing.T) {
	in := MessagesOf("b", "Bee", "a", "Ay = equals", "c", "line1\nline2")
	in.Put("skipped", nil)

	data, err := PropertiesFormat{}.Encode(in)
	require.NoError(t, err)
	out, err := PropertiesFormat{}.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, []MessageKey{"b", "a", "c"}, out.Keys())
	for _, k := range out.Keys() {
		want, _ := in.Get(k)
		got, _ := out.Get(k)
		assert.Equal(t, *want, *got, k)
	}
}

func TestYAMLFormat_DecodeFlattensNestedKeys(t *testing.T) {
	data := []byte(`
shop:
  prev: Previous
  next: Next
  empty: ~
title: Store
base: &b Shared
copy: *b
`)

	msgs, err := YAMLFormat{}.Decode(data)

	require.NoError(t, err)
	assert.Equal(t, []MessageKey{"shop.prev", "shop.next", "shop.empty", "title", "base", "copy"}, msgs.Keys())
	v, ok := msgs.Get("shop.empty")
	assert.True(t, ok)
	assert.Nil(t, v)
	v, _ = msgs.Get("copy")
	assert.Equal(t, "Shared", *v)
}

func TestYAMLFormat_DecodeEmptyDocument(t *testing.T) {
	msgs, err := YAMLFormat{}.Decode([]byte(""))

	require.NoError(t, err)
	assert.Zero(t, msgs.Len())
}

func TestYAMLFormat_DecodeRejectsNonMappings(t *testing.T) {
	cases := map[string]string{
		"top-level list": "- a\n- b\n",
		"nested list":    "menu:\n  - a\n",
		"broken":         "a: [\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := YAMLFormat{}.Decode([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestYAMLFormat_EncodeRoundTrip(t *testing.T) {
	in := MessagesOf("shop.prev", "Předchozí", "yes", "yes", "num", "42")
	in.Put("skipped", nil)

	data, err := YAMLFormat{}.Encode(in)
	require.NoError(t, err)
	out, err := YAMLFormat{}.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, []MessageKey{"shop.prev", "yes", "num"}, out.Keys())
	v, _ := out.Get("num")
	assert.Equal(t, "42", *v)
}

func TestTSFormat_DecodeFlattensNestedObjects(t *testing.T) {
	data := []byte("import { Messages } from './types';\n\n" +
		"// shop texts\n" +
		"export default {\n" +
		"  title: 'Store',\n" +
		"  \"shop\": {\n" +
		"    prev: \"Previous\",\n" +
		"    'next': 'Next \\'page\\'',\n" +
		"    /* not yet */ empty: null,\n" +
		"  },\n" +
		"  multi: `line1\nline2`,\n" +
		"  escaped: 'caf\\u00e9\\tok',\n" +
		"  emoji: '\\uD83D\\uDE00',\n" +
		"} as const;\n")

	msgs, err := TSFormat{}.Decode(data)

	require.NoError(t, err)
	assert.Equal(t, []MessageKey{"title", "shop.prev", "shop.next", "shop.empty", "multi", "escaped", "emoji"}, msgs.Keys())
	want := map[MessageKey]string{
		"title":     "Store",
		"shop.prev": "Previous",
		"shop.next": "Next 'page'",
		"multi":     "line1\nline2",
		"escaped":   "caf\u00e9\tok",
		"emoji":     "\U0001F600",
	}
	for k, w := range want {
		v, ok := msgs.Get(k)
		require.True(t, ok, k)
		require.NotNil(t, v, k)
		assert.Equal(t, w, *v, k)
	}
	v, ok := msgs.Get("shop.empty")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestTSFormat_DecodeErrors(t *testing.T) {
	cases := map[string]string{
		"no export":       "const a = { b: 'c' };\n",
		"not an object":   "export default messages;\n",
		"number value":    "export default { a: 1 };\n",
		"unterminated":    "export default { a: 'b };\n",
		"substitution":    "export default { a: `${x}` };\n",
		"trailing tokens": "export default { a: 'b' } foo\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := TSFormat{}.Decode([]byte(data))
			assert.Error(t, err)
		})
	}

	msgs, err := TSFormat{}.Decode([]byte("  \n"))
	require.NoError(t, err)
	assert.Zero(t, msgs.Len())
}

func TestTSFormat_EncodeRoundTrip(t *testing.T) {
	in := MessagesOf("shop.prev", "Předchozí", "title", "It's \"here\"", "multi", "a\nb\\c")
	in.Put("skipped", nil)

	data, err := TSFormat{}.Encode(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), "  'shop.prev': 'Předchozí',\n")
	assert.Contains(t, string(data), "  title: 'It\\'s \"here\"',\n")

	out, err := TSFormat{}.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []MessageKey{"shop.prev", "title", "multi"}, out.Keys())
	for _, k := range out.Keys() {
		want, _ := in.Get(k)
		got, _ := out.Get(k)
		assert.Equal(t, *want, *got, k)
	}
}
