package tracking

import (
	"math/rand"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource replays the same fixed buffer on every Read, truncated
// or repeated to fill whatever length the caller asks for.
type sliceSource struct {
	data []complex128
}

func (s *sliceSource) Read(buf []complex128) (int, error) {
	n := copy(buf, s.data)
	return n, nil
}

// chunkedSource hands out at most maxPerRead samples per call, to
// exercise multi-call draining.
type chunkedSource struct {
	data       []complex128
	maxPerRead int
}

func (s *chunkedSource) Read(buf []complex128) (int, error) {
	want := len(buf)
	if want > s.maxPerRead {
		want = s.maxPerRead
	}
	if want > len(s.data) {
		want = len(s.data)
	}
	n := copy(buf[:want], s.data)
	s.data = s.data[n:]
	return n, nil
}

func testChannelConfig() ChannelConfig {
	return ChannelConfig{
		FsInHz:            2e6,
		PllBwHz:           25,
		DllBwHz:           2,
		EarlyLateSpcChips: 0.5,
		VectorLength:      2000,
		ReplicaPolicy:     PreSampled,
	}
}

func TestChannelStartsIdleAndEchoesAcquisition(t *testing.T) {
	cfg := testChannelConfig()
	ch, err := NewChannel(1, cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Idle, ch.Phase())

	src := &sliceSource{data: make([]complex128, cfg.VectorLength)}
	meas, err := ch.Process(src)
	require.NoError(t, err)
	assert.Equal(t, 0, meas.PRN)
}

func TestChannelRejectsStaleAcquisition(t *testing.T) {
	cfg := testChannelConfig()
	ch, err := NewChannel(1, cfg, nil, nil)
	require.NoError(t, err)
	ch.sampleCounter = 1000

	err = ch.StartTracking(AcquisitionHandoff{PRN: 1, AcqSampleStamp: 5000})
	assert.ErrorIs(t, err, ErrAcquisitionStale)
	assert.Equal(t, Idle, ch.Phase())
}

func TestChannelRejectsInvalidPRNOnStartTracking(t *testing.T) {
	cfg := testChannelConfig()
	ch, err := NewChannel(1, cfg, nil, nil)
	require.NoError(t, err)

	err = ch.StartTracking(AcquisitionHandoff{PRN: 99})
	assert.ErrorIs(t, err, ErrConfigInvalid)
}

func TestChannelStartTrackingEntersPullIn(t *testing.T) {
	cfg := testChannelConfig()
	ch, err := NewChannel(1, cfg, nil, nil)
	require.NoError(t, err)

	require.NoError(t, ch.StartTracking(AcquisitionHandoff{PRN: 7, SystemTag: "GPS"}))
	assert.Equal(t, PullIn, ch.Phase())
}

func TestChannelPullInDrainsAcrossMultipleReads(t *testing.T) {
	cfg := testChannelConfig()
	ch, err := NewChannel(1, cfg, nil, nil)
	require.NoError(t, err)
	require.NoError(t, ch.StartTracking(AcquisitionHandoff{PRN: 7, SystemTag: "GPS"}))

	total := 10 * cfg.VectorLength
	src := &chunkedSource{data: make([]complex128, total), maxPerRead: 17}

	for i := 0; i < 200 && ch.Phase() != Tracking; i++ {
		_, err := ch.Process(src)
		require.NoError(t, err)
	}
	assert.Equal(t, Tracking, ch.Phase())
}

func TestChannelStopTransitionsToIdleAtNextEpoch(t *testing.T) {
	cfg := testChannelConfig()
	ch, err := NewChannel(1, cfg, nil, nil)
	require.NoError(t, err)
	require.NoError(t, ch.StartTracking(AcquisitionHandoff{PRN: 7, SystemTag: "GPS"}))
	ch.phase = Tracking
	ch.currentPrnLengthSamples = cfg.VectorLength
	ch.replica = preSampleReplica(ch.code, cfg.VectorLength*2, CodeRateChipsPerS, cfg.FsInHz, cfg.EarlyLateSpcChips)
	ch.pllFilter = NewPLLFilter(cfg.PllBwHz)
	ch.dllFilter = NewDLLFilter(cfg.DllBwHz)

	ch.Stop()

	src := &sliceSource{data: make([]complex128, cfg.VectorLength)}
	_, err = ch.Process(src)
	require.NoError(t, err)
	assert.Equal(t, Idle, ch.Phase())
}

func TestChannelLossOfLockPostsControlEvent(t *testing.T) {
	cfg := testChannelConfig()
	queue := NewControlQueue(1, nil)
	ch, err := NewChannel(9, cfg, queue, nil)
	require.NoError(t, err)
	require.NoError(t, ch.StartTracking(AcquisitionHandoff{PRN: 1, SystemTag: "GPS"}))

	ch.phase = Tracking
	ch.codeFreqChipsPerS = CodeRateChipsPerS
	ch.currentPrnLengthSamples = cfg.VectorLength
	ch.replica = preSampleReplica(ch.code, cfg.VectorLength*2, CodeRateChipsPerS, cfg.FsInHz, cfg.EarlyLateSpcChips)
	ch.pllFilter = NewPLLFilter(cfg.PllBwHz)
	ch.dllFilter = NewDLLFilter(cfg.DllBwHz)
	ch.lockFailCounter = maxLockFailCounter
	ch.cn0Index = cn0Window - 1
	for i := 0; i < cn0Window-1; i++ {
		ch.promptBuffer[i] = complex(0.01, 0.01)
	}

	rng := rand.New(rand.NewSource(42))
	noise := make([]complex128, cfg.VectorLength)
	for i := range noise {
		noise[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	src := &sliceSource{data: noise}

	_, err = ch.processTracking(src)
	require.NoError(t, err)

	assert.Equal(t, Lost, ch.Phase())

	ev := <-queue.Events()
	assert.Equal(t, uint32(9), ev.ChannelID)
	assert.Equal(t, LossOfLock, ev.EventCode)
}

func TestChannelFinishPullInSelectsTCPFilterBackend(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	echoDoublingServer(t, ln)

	cfg := testChannelConfig()
	cfg.FilterBackend = TCPFilterBackend
	cfg.TCPFilterAddr = ln.Addr().String()

	ch, err := NewChannel(1, cfg, nil, nil)
	require.NoError(t, err)
	require.NoError(t, ch.StartTracking(AcquisitionHandoff{PRN: 7, SystemTag: "GPS"}))

	total := 10 * cfg.VectorLength
	src := &chunkedSource{data: make([]complex128, total), maxPerRead: 17}
	for i := 0; i < 200 && ch.Phase() != Tracking; i++ {
		_, err := ch.Process(src)
		require.NoError(t, err)
	}
	require.Equal(t, Tracking, ch.Phase())

	_, pllIsTCP := ch.pllFilter.(*TCPFilter)
	_, dllIsTCP := ch.dllFilter.(*TCPFilter)
	assert.True(t, pllIsTCP, "expected pllFilter to be a *TCPFilter")
	assert.True(t, dllIsTCP, "expected dllFilter to be a *TCPFilter")
}

func TestChannelCloseWithoutDumperIsNoop(t *testing.T) {
	cfg := testChannelConfig()
	ch, err := NewChannel(1, cfg, nil, nil)
	require.NoError(t, err)
	assert.NoError(t, ch.Close())
}
