package extractor

// PageContent is what a Fetcher retrieved for one share page. It is built
// once per request and only read afterwards.
type PageContent struct {
	// HTML is the final markup (raw response body or rendered DOM)
	HTML string

	// Scripts holds the text of every <script> element in document order
	Scripts []string

	// VideoSrc is the src attribute of the rendered <video> element, empty
	// when there was no DOM snapshot or no such element
	VideoSrc string
}

// Result is a successful extraction
type Result struct {
	DirectLink string `json:"directLink"`
	Title      string `json:"title"`

	// Heuristic names the rule that produced DirectLink
	Heuristic string `json:"-"`
}
