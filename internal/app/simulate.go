package app

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/relabs-tech/inertial_decoder/internal/nmea"
	"github.com/relabs-tech/inertial_decoder/internal/orientation"
	"github.com/relabs-tech/inertial_decoder/internal/ubx"
)

const standardGravity = 9.80665

// SimulateOptions shapes a synthetic capture.
type SimulateOptions struct {
	Steps        int           // IMU sampling cycles
	Step         time.Duration // time between cycles
	RMCEvery     int           // one RMC sentence every n cycles, 0 for none
	CorruptEvery int           // corrupt the accel sentence and ESF-RAW frame of every n-th cycle, 0 for none
}

// SimulateSummary counts what was written.
type SimulateSummary struct {
	Accel     int `json:"accel"`
	Gyro      int `json:"gyro"`
	RMC       int `json:"rmc"`
	Vectors   int `json:"vectors"`
	ESFRaw    int `json:"esf_raw"`
	Corrupted int `json:"corrupted"`
	Skipped   int `json:"skipped"` // ESF-RAW frames not written
}

func ftoa(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// corruptSentence changes the last checksum digit.
func corruptSentence(line string) string {
	last := byte('0')
	if line[len(line)-1] == '0' {
		last = '1'
	}
	return line[:len(line)-1] + string(last)
}

// avoidSync bumps every 0xB5 byte of a 24-bit field to 0xB6.
func avoidSync(v uint32) uint32 {
	v &= 0x00FFFFFF
	for shift := 0; shift < 24; shift += 8 {
		if byte(v>>shift) == ubx.Sync1 {
			v += 1 << shift
		}
	}
	return v
}

// cleanRaw is avoidSync for a signed 24-bit sample.
func cleanRaw(raw int32) int32 {
	return int32(avoidSync(uint32(raw))<<8) >> 8
}

// esfRawFrame encodes one cycle of all seven channels with no 0xB5 after
// the sync bytes, so decoders that resync on 0xB5 see the whole frame.
// Samples and time tags are nudged per byte; the temperature is then
// nudged until the checksum is clean too. ok is false if that fails.
func esfRawFrame(gyro, acc [3]float64, tempC float64, tag uint32) (frame []byte, ok bool) {
	gyroRaw := func(v float64) int32 { return cleanRaw(int32(math.Round(v / ubx.DefaultGyroScale))) }
	accRaw := func(v float64) int32 { return cleanRaw(int32(math.Round(v / ubx.DefaultAccelScale))) }
	temp := int32(math.Round(tempC / ubx.DefaultTempScale))
	tag = avoidSync(tag)

	p := ubx.ESFRawPayload()
	p = ubx.AppendESFRawGroup(p, 14, gyroRaw(gyro[0]), tag)
	p = ubx.AppendESFRawGroup(p, 13, gyroRaw(gyro[1]), tag)
	p = ubx.AppendESFRawGroup(p, 5, gyroRaw(gyro[2]), tag)
	p = ubx.AppendESFRawGroup(p, 16, accRaw(acc[0]), tag)
	p = ubx.AppendESFRawGroup(p, 17, accRaw(acc[1]), tag)
	p = ubx.AppendESFRawGroup(p, 18, accRaw(acc[2]), tag)
	motion := len(p)

	for try := int32(0); try < 64; try++ {
		p = ubx.AppendESFRawGroup(p[:motion], 12, cleanRaw(temp+try), tag)
		frame = ubx.Encode(ubx.ClassESF, ubx.IDESFRaw, p)
		if bytes.IndexByte(frame[2:], ubx.Sync1) < 0 {
			return frame, true
		}
	}
	return nil, false
}

// Simulate writes a mixed NMEA + UBX capture of a sensor sweeping
// through roll and pitch.
func Simulate(w io.Writer, opts SimulateOptions) (SimulateSummary, error) {
	var sum SimulateSummary
	if opts.Step <= 0 {
		opts.Step = 100 * time.Millisecond
	}
	bw := bufio.NewWriter(w)
	src := orientation.NewSweepSource(opts.Step)
	prev, _ := src.Next()
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	dt := opts.Step.Seconds()

	for i := 0; i < opts.Steps; i++ {
		pose, err := src.Next()
		if err != nil {
			return sum, err
		}
		gx, gy, gz := orientation.GravityFromPose(pose)
		rates := [3]float64{
			(pose.Roll - prev.Roll) / dt,
			(pose.Pitch - prev.Pitch) / dt,
			(pose.Yaw - prev.Yaw) / dt,
		}
		prev = pose

		ms := int64(i) * opts.Step.Milliseconds()
		tag := strconv.FormatInt(ms, 10)
		corrupt := opts.CorruptEvery > 0 && i%opts.CorruptEvery == opts.CorruptEvery-1

		accLine := nmea.Format("PSTM3DACC", tag, ftoa(gx*1000, 0), ftoa(gy*1000, 0), ftoa(gz*1000, 0))
		if corrupt {
			accLine = corruptSentence(accLine)
			sum.Corrupted++
		} else {
			sum.Accel++
		}
		fmt.Fprintf(bw, "%s\r\n", accLine)

		fmt.Fprintf(bw, "%s\r\n", nmea.Format("PSTM3DGYRO", tag, ftoa(rates[0]*100, 0), ftoa(rates[1]*100, 0), ftoa(rates[2]*100, 0)))
		sum.Gyro++

		fmt.Fprintf(bw, "%s\r\n", nmea.Format("DREAF", tag, ftoa(pose.Roll, 2), ftoa(pose.Pitch, 2), ftoa(pose.Yaw, 2)))
		sum.Vectors++

		if opts.RMCEvery > 0 && i%opts.RMCEvery == 0 {
			ts := start.Add(time.Duration(i) * opts.Step)
			fmt.Fprintf(bw, "%s\r\n", nmea.Format("GPRMC",
				ts.Format("150405.00"), "A",
				ftoa(4807.038+float64(i)*0.001, 3), "N",
				"01131.000", "E", "022.4", "084.4",
				ts.Format("020106"), "", ""))
			sum.RMC++
		}

		frame, ok := esfRawFrame(rates, [3]float64{gx * standardGravity, gy * standardGravity, gz * standardGravity}, 25+pose.Roll/10, uint32(ms))
		switch {
		case !ok:
			sum.Skipped++
			continue
		case corrupt:
			frame[len(frame)-1] ^= 0x01
			if frame[len(frame)-1] == ubx.Sync1 {
				frame[len(frame)-1] ^= 0x03
			}
			sum.Corrupted++
		default:
			sum.ESFRaw++
		}
		if _, err := bw.Write(frame); err != nil {
			return sum, err
		}
	}
	return sum, bw.Flush()
}

// RunSimulate writes a synthetic capture to path.
func RunSimulate(path string, opts SimulateOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	defer f.Close()

	sum, err := Simulate(f, opts)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	log.Printf("simulate: wrote %s: accel=%d gyro=%d rmc=%d vectors=%d esf_raw=%d corrupted=%d skipped=%d",
		path, sum.Accel, sum.Gyro, sum.RMC, sum.Vectors, sum.ESFRaw, sum.Corrupted, sum.Skipped)
	return f.Close()
}
