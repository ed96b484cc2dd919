package classify

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/affidavit-tracker/constants"
	"github.com/joseph-ayodele/affidavit-tracker/internal/ocr"
)

// fakeEngine returns the text registered for a page; the page image holds its index.
type fakeEngine struct {
	mu    sync.Mutex
	texts map[int]string
	fail  map[int]error
	calls []int
	langs []string
}

func (f *fakeEngine) Recognize(_ context.Context, image []byte, lang string) (string, error) {
	idx, _ := strconv.Atoi(string(image))
	f.mu.Lock()
	f.calls = append(f.calls, idx)
	f.langs = append(f.langs, lang)
	f.mu.Unlock()
	if err := f.fail[idx]; err != nil {
		return "", err
	}
	return f.texts[idx], nil
}

func pages(n int) []ocr.Page {
	out := make([]ocr.Page, n)
	for i := range out {
		out[i] = ocr.Page{Index: i, Image: []byte(strconv.Itoa(i)), DPI: 300, Scale: 300.0 / 72}
	}
	return out
}

func TestClassify_SeparatePages(t *testing.T) {
	eng := &fakeEngine{texts: map[int]string{
		0: "cover sheet",
		1: "Income Tax Department\nPermanent Account Number Card",
		2: "मैं, राम कुमार, आयु 45 वर्ष, निवासी पटना",
	}}
	c := NewClassifier(eng, Options{}, nil)

	got, err := c.Classify(context.Background(), pages(3))
	require.NoError(t, err)
	assert.Equal(t, Assignment{PANPage: 1, UserDetailsPage: 2}, got)
	assert.Equal(t, constants.OCRLanguage, eng.langs[0])
}

func TestClassify_OnePageHoldsBothRoles(t *testing.T) {
	eng := &fakeEngine{texts: map[int]string{
		0: "शपथ पत्र ... पैन: ABCDE1234F",
		1: "PAN again",
	}}
	c := NewClassifier(eng, Options{}, nil)

	got, err := c.Classify(context.Background(), pages(2))
	require.NoError(t, err)
	assert.Equal(t, Assignment{PANPage: 0, UserDetailsPage: 0}, got)
	assert.Equal(t, []int{0}, eng.calls, "scan stops once both roles are assigned")
}

func TestClassify_FirstMatchWins(t *testing.T) {
	eng := &fakeEngine{texts: map[int]string{
		0: "पिता का नाम",
		1: "pan card",
		2: "pan card copy",
		3: "आयु",
	}}
	c := NewClassifier(eng, Options{}, nil)

	got, err := c.Classify(context.Background(), pages(4))
	require.NoError(t, err)
	assert.Equal(t, Assignment{PANPage: 1, UserDetailsPage: 0}, got)
	assert.Equal(t, []int{0, 1}, eng.calls)
}

func TestClassify_CaseInsensitive(t *testing.T) {
	eng := &fakeEngine{texts: map[int]string{0: "PERMANENT ACCOUNT NUMBER", 1: "जिला पटना"}}
	c := NewClassifier(eng, Options{}, nil)

	got, err := c.Classify(context.Background(), pages(2))
	require.NoError(t, err)
	assert.Equal(t, 0, got.PANPage)
	assert.Equal(t, 1, got.UserDetailsPage)
}

func TestClassify_MissingUserDetailsPage(t *testing.T) {
	eng := &fakeEngine{texts: map[int]string{0: "blank", 1: "PAN ABCDE1234F", 2: "annexure"}}
	c := NewClassifier(eng, Options{}, nil)

	_, err := c.Classify(context.Background(), pages(3))
	require.Error(t, err)

	var nf *PageNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, []constants.PageRole{constants.RoleUserDetails}, nf.Missing)
	assert.Equal(t, []int{0, 1, 2}, eng.calls)
}

func TestClassify_NoPages(t *testing.T) {
	c := NewClassifier(&fakeEngine{}, Options{}, nil)

	_, err := c.Classify(context.Background(), nil)
	var nf *PageNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, []constants.PageRole{constants.RolePAN, constants.RoleUserDetails}, nf.Missing)
	assert.Contains(t, nf.Error(), "pan, user_details")
}

func TestClassify_OCRFailureTreatedAsBlank(t *testing.T) {
	eng := &fakeEngine{
		texts: map[int]string{0: "PAN", 1: "PAN and शपथ", 2: "निवासी"},
		fail:  map[int]error{1: errors.New("tesseract crashed")},
	}
	c := NewClassifier(eng, Options{}, nil)

	got, err := c.Classify(context.Background(), pages(3))
	require.NoError(t, err)
	assert.Equal(t, Assignment{PANPage: 0, UserDetailsPage: 2}, got)
}

func TestClassify_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClassifier(&fakeEngine{}, Options{}, nil).Classify(ctx, pages(2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

// stallEngine answers from texts but blocks on the pages in stall until ctx ends.
type stallEngine struct {
	texts map[int]string
	stall map[int]bool
}

func (s stallEngine) Recognize(ctx context.Context, image []byte, _ string) (string, error) {
	idx, _ := strconv.Atoi(string(image))
	if s.stall[idx] {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.texts[idx], nil
}

func TestClassify_RunDeadlineDuringOCR(t *testing.T) {
	eng := stallEngine{texts: map[int]string{0: "PAN card"}, stall: map[int]bool{1: true}}
	c := NewClassifier(eng, Options{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Classify(ctx, pages(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var notFound *PageNotFoundError
	assert.False(t, errors.As(err, &notFound))
}

func TestClassify_PageTimeoutStaysSoft(t *testing.T) {
	eng := stallEngine{
		texts: map[int]string{1: "PAN card", 2: "शपथ पत्र"},
		stall: map[int]bool{0: true},
	}
	c := NewClassifier(eng, Options{PageTimeout: 20 * time.Millisecond}, nil)

	got, err := c.Classify(context.Background(), pages(3))
	require.NoError(t, err)
	assert.Equal(t, Assignment{PANPage: 1, UserDetailsPage: 2}, got)
}
