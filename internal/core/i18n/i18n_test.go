package i18n

import "testing"

func TestLocalesAreComplete(t *testing.T) {
	for _, lang := range SupportedLanguages {
		t.Run(lang.Code, func(t *testing.T) {
			tr, err := loadTranslations(lang.Code)
			if err != nil {
				t.Fatalf("loadTranslations(%q) error = %v", lang.Code, err)
			}
			msgs := map[string]string{
				"errors.invalid_input": tr.Errors.InvalidInput,
				"errors.not_found":     tr.Errors.NotFound,
				"errors.fetch_failed":  tr.Errors.FetchFailed,
				"errors.unauthorized":  tr.Errors.Unauthorized,
				"extract.title":        tr.Extract.Title,
				"extract.link":         tr.Extract.Link,
				"extract.summary":      tr.Extract.Summary,
				"download.completed":   tr.Download.Completed,
				"download.failed":      tr.Download.Failed,
				"download.cancel_hint": tr.Download.CancelHint,
				"server.run_init_hint": tr.Server.RunInitHint,
			}
			for key, msg := range msgs {
				if msg == "" {
					t.Errorf("%s is missing", key)
				}
			}
		})
	}
}

func TestUnknownLanguageFallsBackToEnglish(t *testing.T) {
	got := T("xx").Errors.NotFound
	want := T("en").Errors.NotFound
	if got != want {
		t.Errorf("T(\"xx\").Errors.NotFound = %q; want %q", got, want)
	}
}
