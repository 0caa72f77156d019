// Package usecase はブランド名から公式URLへの正規化ルックアップを提供します。
package usecase

import (
	"sort"
	"strings"
	"unicode"
)

// Table は読み取り専用のブランドリンクテーブルです。生成後は変更されないため、並行読み取りは常に安全です。
//
// ルックアップは2段階で行います:
//  1. 前後の空白を除去し小文字化したラベルで完全一致
//  2. 文字・数字以外をすべて取り除いた形（"McDonald's" → "mcdonalds"）で一致
type Table struct {
	exact   map[string]string
	compact map[string]string
}

// NewTable はキー→URLのマップからTableを生成します。空のキーやURLは無視されます。
func NewTable(links map[string]string) *Table {
	keys := make([]string, 0, len(links))
	for k := range links {
		keys = append(keys, k)
	}
	// compact形が衝突した場合は辞書順で最小の元キーを採用する
	sort.Strings(keys)

	t := &Table{
		exact:   make(map[string]string, len(links)),
		compact: make(map[string]string, len(links)),
	}
	for _, k := range keys {
		url := strings.TrimSpace(links[k])
		if url == "" {
			continue
		}
		if e := Normalize(k); e != "" {
			if _, ok := t.exact[e]; !ok {
				t.exact[e] = url
			}
		}
		if c := Compact(k); c != "" {
			if _, ok := t.compact[c]; !ok {
				t.compact[c] = url
			}
		}
	}
	return t
}

// Normalize は前後の空白を除去して小文字化します。
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Compact は小文字化したうえで文字・数字以外（空白・記号・アポストロフィ等）を取り除きます。
func Compact(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve はラベルに対応するURLを返します。
func (t *Table) Resolve(label string) (string, bool) {
	if t == nil {
		return "", false
	}
	if url, ok := t.exact[Normalize(label)]; ok {
		return url, true
	}
	c := Compact(label)
	if c == "" {
		return "", false
	}
	url, ok := t.compact[c]
	return url, ok
}

// LoadError は静的テーブルでは常にnilです。
func (t *Table) LoadError() error {
	return nil
}

// Len は登録されているキーの数を返します。
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.exact)
}
