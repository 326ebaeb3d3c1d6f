package domain

import "encoding/json"

// RawCaptureEntry is one scraped row of a conversation, exactly as the
// capture step emitted it. Part files hold a JSON array of these; the
// sequencer attaches the provenance fields when it flattens the corpus.
type RawCaptureEntry struct {
	Sender    string   `json:"sender"`
	RawText   string   `json:"content"`
	MediaURLs []string `json:"media_urls,omitempty"`

	// Provenance. Batch is the batch directory name; Part and Index
	// position the entry inside it. (batch_number, part_number, index)
	// is the total order key — the timestamp label is display-only and
	// must never be used for sorting.
	SourceFile string `json:"source_file,omitempty"`
	Batch      string `json:"batch,omitempty"`
	Part       int    `json:"part,omitempty"`
	Index      int    `json:"index"`
}

// rawCaptureEntryJSON accepts both field spellings found in capture files:
// the scraper writes "raw_text", the stitched intermediate writes "content".
type rawCaptureEntryJSON struct {
	Sender     string   `json:"sender"`
	RawText    string   `json:"raw_text"`
	Content    string   `json:"content"`
	MediaURLs  []string `json:"media_urls"`
	SourceFile string   `json:"source_file"`
	Batch      string   `json:"batch"`
	Part       int      `json:"part"`
	Index      int      `json:"index"`
}

func (e *RawCaptureEntry) UnmarshalJSON(data []byte) error {
	var aux rawCaptureEntryJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Sender = aux.Sender
	e.RawText = aux.RawText
	if e.RawText == "" {
		e.RawText = aux.Content
	}
	e.MediaURLs = aux.MediaURLs
	e.SourceFile = aux.SourceFile
	e.Batch = aux.Batch
	e.Part = aux.Part
	e.Index = aux.Index
	return nil
}
