package out_test

import (
	"bytes"
	"context"
	"testing"

	practiceout "pahm/internal/modules/practice/adapter/out"
)

func TestBellSignalerRingsOnlyWhenGranted(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	bell := practiceout.NewBellSignaler(&buf, nil)

	bell.PlayTapCue()
	if buf.Len() != 0 {
		t.Fatalf("bell rang before permission")
	}
	if !bell.RequestPermission(context.Background()) {
		t.Fatalf("expected permission with a writer")
	}
	bell.PlayTapCue()
	bell.PlayCompletionCue()
	if buf.String() != "\a\a\a\a" {
		t.Fatalf("unexpected bell output %q", buf.String())
	}
	bell.Close()
	bell.PlayTapCue()
	if buf.Len() != 4 {
		t.Fatalf("bell rang after close")
	}
}

func TestBellSignalerWithoutWriter(t *testing.T) {
	t.Parallel()
	bell := practiceout.NewBellSignaler(nil, nil)
	if bell.RequestPermission(context.Background()) {
		t.Fatalf("expected no permission without a writer")
	}
	bell.PlayCompletionCue()
}
