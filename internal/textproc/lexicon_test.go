package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRemoveProfanity_WholeWordsOnly checks that short lexicon words are not
// matched inside longer words.
func TestRemoveProfanity_WholeWordsOnly(t *testing.T) {
	for _, w := range profanityWords {
		embedded := "за" + w + "ка"
		assert.Equal(t, embedded, RemoveProfanity(embedded), "word %q", w)

		standalone := "ну " + w + " же"
		assert.Equal(t, "ну "+RedactionToken+" же", RemoveProfanity(standalone), "word %q", w)
	}
}

// TestRemoveProfanity_StemsTakeContinuation checks that inflected forms are
// replaced as a whole, with no tail left behind.
func TestRemoveProfanity_StemsTakeContinuation(t *testing.T) {
	for _, stem := range profanityStems {
		got := RemoveProfanity("вот " + stem + "ами тут")
		assert.Equal(t, "вот "+RedactionToken+" тут", got, "stem %q", stem)
	}
}

func TestRemoveProfanity_OrdinaryWords(t *testing.T) {
	ordinary := []string{"рубля", "употреблять", "оскорблял", "Херсон", "сукно", "гадание", "мудрость", "застраховать"}

	text := strings.Join(ordinary, " ")

	assert.Equal(t, text, RemoveProfanity(text))
}

func TestIsProfane_CaseInsensitive(t *testing.T) {
	assert.True(t, isProfane("СУКА"))
	assert.True(t, isProfane("Гад"))
	assert.False(t, isProfane("Гадать"))
}
