// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mentions

import "cogentcore.org/mentions/mtypes"

// scanMentions walks buf's mention-attribute runs in ascending order
// (spec §4.G's "scans buffer attributes in ascending order"), generically
// over any [mtypes.Buffer] implementation via repeated AttributeAt calls,
// jumping ahead by each hit run's length rather than requiring the buffer
// to expose its own enumeration.
func scanMentions(buf mtypes.Buffer) []mtypes.Mention {
	runes := []rune(buf.Text())
	n := len(runes)
	var out []mtypes.Mention
	for i := 0; i < n; {
		av, ok := buf.AttributeAt(i, mtypes.MentionAttributeName)
		if !ok {
			i++
			continue
		}
		val, _ := av.Value.(mtypes.MentionAttributeValue)
		end := av.RunRange.End()
		if end > n {
			end = n
		}
		start := av.RunRange.Start
		if start < 0 {
			start = 0
		}
		out = append(out, mtypes.Mention{
			EntityID:    val.EntityID,
			UniqueID:    val.UniqueID,
			DisplayText: string(runes[start:end]),
			Metadata:    val.Metadata,
			Range:       av.RunRange,
		})
		if end <= i {
			i++
		} else {
			i = end
		}
	}
	return out
}

// ExtractMentionsFromAttributedString is the static analog of
// [Controller.Mentions] named in spec §4.G: it scans an arbitrary
// attributed buffer for committed mentions without requiring a live
// Controller attached to it.
func ExtractMentionsFromAttributedString(buf mtypes.Buffer) []mtypes.Mention {
	return scanMentions(buf)
}
