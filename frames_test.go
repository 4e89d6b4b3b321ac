package poseinterface

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFrameNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		pattern  string
		want     int
	}{
		{"img0000.png", `img(\d*)`, 0},
		{"img0234.png", `img(0\d*)`, 234},
		{"img0234.png", `img(\d*)`, 234},
		{"sub-M708149_ses-20200317_view-topdown_frame-00000.png", DefaultFrameRegexp.String(), 0},
		{"sub-X_ses-Y_view-Z_frame-00042.png", DefaultFrameRegexp.String(), 42},
		{"frame-234", DefaultFrameRegexp.String(), 234},
		{"frame-0234", DefaultFrameRegexp.String(), 234},
		{"frame-0234abcd", DefaultFrameRegexp.String(), 234},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.filename+"/"+tc.pattern, func(t *testing.T) {
			t.Parallel()
			got, err := ExtractFrameNumber(tc.filename, regexp.MustCompile(tc.pattern))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractFrameNumberInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		pattern  string
	}{
		{"sub-M708149_ses-20200317_view-topdown_frame.png", `frame-(0\d*)`},
		{"frame-234", `frame-(0\d*)`}, // No leading zero.
		{"sub-M708149_ses-20200317_view-topdown_.png", `frame-(0\d*)`},
		{"frame-0234", `img(0\d*)`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.filename+"/"+tc.pattern, func(t *testing.T) {
			t.Parallel()
			_, err := ExtractFrameNumber(tc.filename, regexp.MustCompile(tc.pattern))
			require.Error(t, err)

			var fnErr *FrameNumberError
			require.ErrorAs(t, err, &fnErr)
			assert.Contains(t, err.Error(), "No frame number could be extracted")
			assert.Contains(t, err.Error(), "regexp pattern")
			assert.Contains(t, err.Error(), tc.filename)
		})
	}
}

func TestSourceFrameDigits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"img0000.png", "0000"},
		{"img0042.png", "0042"},
		{"img006825.png", "006825"},
		{"0042.png", "0042"},
		{"cam2_img0007.png", "0007"}, // Last digit run wins.
	}
	for _, tc := range tests {
		tc := tc
		got, err := sourceFrameDigits(tc.name)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}

	_, err := sourceFrameDigits("frame.png")
	var fnErr *FrameNumberError
	require.ErrorAs(t, err, &fnErr)
}

func TestNamingScheme(t *testing.T) {
	t.Parallel()

	scheme := NamingScheme{Subject: "M708149", Session: "20200317", View: "topdown"}
	assert.Equal(t, "sub-M708149_ses-20200317", scheme.SessionID())
	assert.Equal(t, "sub-M708149_ses-20200317_view-topdown", scheme.VideoID())
	// Zero padding of the digits must survive.
	assert.Equal(t, "sub-M708149_ses-20200317_view-topdown_frame-0042.png",
		scheme.FrameFileName("0042", "png"))
}

func TestDeriveImageFilenames(t *testing.T) {
	t.Parallel()

	scheme := NamingScheme{Subject: "X", Session: "Y", View: "Z"}

	t.Run("from source image paths", func(t *testing.T) {
		t.Parallel()
		labels := testLabelSet(t, "img0000.png", "img0042.png")

		names, err := DeriveImageFilenames(labels, scheme)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"sub-X_ses-Y_view-Z_frame-0000.png",
			"sub-X_ses-Y_view-Z_frame-0042.png",
		}, names)
	})

	t.Run("falls back to frame index without image paths", func(t *testing.T) {
		t.Parallel()
		labels := &LabelSet{}
		video := labels.video("clip")
		labels.Frames = []LabeledFrame{{Video: video, FrameIndex: 7}}

		names, err := DeriveImageFilenames(labels, scheme)
		require.NoError(t, err)
		assert.Equal(t, []string{"sub-X_ses-Y_view-Z_frame-00007.png"}, names)
	})

	t.Run("source name without digits fails", func(t *testing.T) {
		t.Parallel()
		labels := testLabelSet(t, "frame.png")

		_, err := DeriveImageFilenames(labels, scheme)
		var fnErr *FrameNumberError
		require.ErrorAs(t, err, &fnErr)
	})
}
