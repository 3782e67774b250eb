package htmltext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricofy/catalog-translator/internal/domain"
)

func identity(ex *Extraction) func(int) (string, bool) {
	return func(pos int) (string, bool) { return ex.Texts[pos], true }
}

func fromSlice(texts []string) func(int) (string, bool) {
	return func(pos int) (string, bool) {
		if pos >= len(texts) {
			return "", false
		}
		return texts[pos], true
	}
}

func TestExtract_DocumentOrder(t *testing.T) {
	ex, err := Extract([]string{
		`<div>one<span>two</span>three<ul><li>four</li><li>five</li></ul></div><p>six</p>`,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two", "three", "four", "five", "six"}, ex.Texts)
	for i, ref := range ex.Refs {
		assert.Equal(t, domain.TextNodeRef{Item: 0, Node: i}, ref)
	}
}

func TestExtract_SkipsBlankAndMissingContent(t *testing.T) {
	ex, err := Extract([]string{
		"<p>A</p>\n  <p> </p>",
		"",
		"<b>B</b>",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, ex.Texts)
	assert.Equal(t, []domain.TextNodeRef{{Item: 0, Node: 0}, {Item: 2, Node: 0}}, ex.Refs)
	require.Len(t, ex.Docs, 3)
	assert.NotNil(t, ex.Docs[0])
	assert.Nil(t, ex.Docs[1])
	assert.NotNil(t, ex.Docs[2])
}

func TestExtract_CapturesStyle(t *testing.T) {
	ex, err := Extract([]string{
		`<style>.a{color:red}</style><div><style>.b{margin:0}</style><p>Hello</p></div>`,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello"}, ex.Texts, "css must never reach translation")
	assert.Equal(t, ".a{color:red}.b{margin:0}", ex.Docs[0].Style())
}

func TestReinsert_ThreeParagraphs(t *testing.T) {
	ex, err := Extract([]string{"<p>A</p><p>B</p><p>C</p>"})
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, ex.Texts)

	out, err := Reinsert(ex, fromSlice([]string{"X", "Y", "Z"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"<p>X</p><p>Y</p><p>Z</p>"}, out)
}

func TestReinsert_MultipleItems(t *testing.T) {
	ex, err := Extract([]string{"<p>a1</p><p>a2</p>", "", "<i>b1</i>"})
	require.NoError(t, err)

	out, err := Reinsert(ex, fromSlice([]string{"A1", "A2", "B1"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"<p>A1</p><p>A2</p>", "", "<i>B1</i>"}, out)
}

func TestReinsert_MissingPositionKeepsOriginal(t *testing.T) {
	ex, err := Extract([]string{"<p>A</p><p>B</p><p>C</p>"})
	require.NoError(t, err)

	lookup := func(pos int) (string, bool) {
		if pos == 1 {
			return "", false
		}
		return strings.ToLower(ex.Texts[pos]) + "!", true
	}

	out, err := Reinsert(ex, lookup)
	require.NoError(t, err)
	assert.Equal(t, "<p>a!</p><p>B</p><p>c!</p>", out[0])
}

func TestReinsert_NothingTranslated(t *testing.T) {
	ex, err := Extract([]string{"<p>A</p><p>B</p>"})
	require.NoError(t, err)

	out, err := Reinsert(ex, func(int) (string, bool) { return "", false })
	require.NoError(t, err)
	assert.Equal(t, "<p>A</p><p>B</p>", out[0])
}

func TestReinsert_PrependsStyle(t *testing.T) {
	ex, err := Extract([]string{"<style>.a{}\n.b{}</style><p>Hi</p>"})
	require.NoError(t, err)

	out, err := Reinsert(ex, fromSlice([]string{"Xin chào"}))
	require.NoError(t, err)
	assert.Equal(t, "    <style>\n        .a{}\n        .b{}\n    </style>\n<p>Xin chào</p>", out[0])
}

func TestRoundTrip_Identity(t *testing.T) {
	docs := []string{
		`<div class="desc" id="d1"><h2>Title</h2><p>Some <b>bold</b> and <a href="/x?y=1">link</a>.</p><img src="a.png" alt="pic"/><br/></div>`,
		`<table><tbody><tr><td>Size</td><td>XL</td></tr><tr><td>Color</td><td>Red</td></tr></tbody></table>`,
		`<ul><li>one</li><li><span style="color:red">two</span></li></ul>`,
		`<table><tr><td>A</td></tr></table>`,
		`<DIV>A</DIV><P CLASS="x">B</P>`,
		`<td>A</td>`,
		`<tr><td>Size</td><td>&nbsp;</td></tr>`,
		`<p>A&nbsp;B &amp; C</p>`,
		`<!-- note --><p>x</p>`,
		`<p>unclosed <b>bold`,
	}

	ex, err := Extract(docs)
	require.NoError(t, err)

	out, err := Reinsert(ex, identity(ex))
	require.NoError(t, err)

	for i := range docs {
		assert.Equal(t, docs[i], out[i], "item %d", i)
	}

	again, err := Extract(out)
	require.NoError(t, err)
	assert.Equal(t, ex.Texts, again.Texts)
	assert.Equal(t, ex.Refs, again.Refs)
}

func TestReinsert_KeepsImpliedStructure(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		texts []string
		want  string
	}{
		{
			name:  "table without tbody",
			in:    `<table><tr><td>Size</td><td>XL</td></tr></table>`,
			texts: []string{"Cỡ", "XL"},
			want:  `<table><tr><td>Cỡ</td><td>XL</td></tr></table>`,
		},
		{
			name:  "upper case tags",
			in:    `<DIV>Red</DIV><BR><SPAN>Blue</SPAN>`,
			texts: []string{"Đỏ", "Xanh"},
			want:  `<DIV>Đỏ</DIV><BR><SPAN>Xanh</SPAN>`,
		},
		{
			name:  "bare cell",
			in:    `<td>Color</td>`,
			texts: []string{"Màu"},
			want:  `<td>Màu</td>`,
		},
		{
			name:  "entity kept when text is unchanged",
			in:    `<p>A&nbsp;B</p><p>C</p>`,
			texts: []string{"A\u00a0B", "Ç"},
			want:  `<p>A&nbsp;B</p><p>Ç</p>`,
		},
		{
			name:  "translated text is escaped",
			in:    `<p>x</p>`,
			texts: []string{"a < b & c"},
			want:  `<p>a &lt; b &amp; c</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := Extract([]string{tt.in})
			require.NoError(t, err)
			require.Len(t, ex.Texts, len(tt.texts))

			out, err := Reinsert(ex, fromSlice(tt.texts))
			require.NoError(t, err)
			assert.Equal(t, tt.want, out[0])
		})
	}
}

func TestExtract_Entities(t *testing.T) {
	ex, err := Extract([]string{`<p>Tom &amp; Jerry</p><p>&nbsp;</p><script>var a = "x";</script>`})
	require.NoError(t, err)
	assert.Equal(t, []string{"Tom & Jerry"}, ex.Texts, "blank and script text is not translated")
}

func TestExtract_DeepNesting(t *testing.T) {
	const depth = 300
	content := strings.Repeat("<span>", depth) + "deep" + strings.Repeat("</span>", depth)

	ex, err := Extract([]string{content})
	require.NoError(t, err)
	require.Equal(t, []string{"deep"}, ex.Texts)

	out, err := Reinsert(ex, fromSlice([]string{"sâu"}))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("<span>", depth)+"sâu"+strings.Repeat("</span>", depth), out[0])
}

func TestUppercaseTags(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`<div class="a">x</div>`, `<DIV class="a">x</DIV>`},
		{`<img src="a.png"/>`, `<IMG src="a.png"/>`},
		{`a<br/>b<br>c`, `a<BR/>b<BR/>c`},
		{`<b>x</b>`, `<B>x</B>`},
		{`<table><tbody><tr><td>x</td></tr></tbody></table>`, `<TABLE><TBODY><TR><TD>x</TD></TR></TBODY></TABLE>`},
		{`<span>x</span>`, `<SPAN>x</SPAN>`},
		{`<p>untouched</p>`, `<p>untouched</p>`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, UppercaseTags(tt.in))
		})
	}
}
