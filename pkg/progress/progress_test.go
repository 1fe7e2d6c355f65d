package progress_test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/lineage/pkg/progress"
)

const testWidth = 10

func TestDrawBar(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "███████░░░", progress.DrawBar(0.7, testWidth))
	assert.Equal(t, "░░░░░░░░░░", progress.DrawBar(-1, testWidth))
	assert.Equal(t, "██████████", progress.DrawBar(2, testWidth))
}

func TestBar_NonInteractivePrintsOnceOnFinish(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	printer := progress.NewPrinter(&buf, progress.WithWidth(testWidth))
	bar := printer.Phase("Saving commits", 2000)

	bar.Add(1000)
	assert.Empty(t, buf.String())

	bar.Add(1000)
	bar.Finish()
	bar.Finish()

	assert.Equal(t, "Saving commits [██████████] 2,000/2,000\n", buf.String())
}

func TestBar_ConcurrentAdd(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	printer := progress.NewPrinter(&buf, progress.WithInteractive(true))
	bar := printer.Phase("Computing blames", 100)

	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 10 {
				bar.Add(1)
			}
		}()
	}

	wg.Wait()
	bar.Finish()

	assert.Equal(t, int64(100), bar.Done())
	assert.Contains(t, buf.String(), "\rComputing blames")
	assert.Contains(t, buf.String(), "100/100\n")
}

func TestPrinter_Quiet(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	printer := progress.NewPrinter(&buf, progress.WithQuiet(true), progress.WithInteractive(true))
	printer.Message("Searching for commits")

	bar := printer.Phase("x", 1)
	bar.Add(1)
	bar.Finish()

	assert.Empty(t, buf.String())
}
