// Package specfmt turns raw device measurements into the strings shown on the
// device info panel.
//
// Sizes are rounded up to the "marketing" capacities printed on the box, so a
// phone whose data partition reports 110.3 GiB is shown as "128 GB".
package specfmt

import (
	"fmt"
	"math"
)

// Byte units
const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
)

// smallStorageGB is the size at and below which storage is shown as a plain
// ceiling instead of a bucket
const smallStorageGB = 8

// gbPerTB is the threshold and divisor for the TB rendering
const gbPerTB = 1024

// StorageBuckets lists the advertised storage sizes in GB, ascending
var StorageBuckets = []int{16, 32, 64, 128, 256, 512, 1024}

// RAMBuckets lists the advertised RAM sizes in GB, ascending
var RAMBuckets = []int{1, 2, 3, 4, 6, 8, 10, 12, 16, 32, 48, 64}

// BytesToGB converts a byte count to binary gigabytes
func BytesToGB(bytes uint64) float64 {
	return float64(bytes) / GiB
}

// RoundStorageGB rounds a storage size in GB to the advertised capacity.
// Sizes up to 8 GB use a plain ceiling, sizes above 1024 GB fall through to a
// plain ceiling as well.
func RoundStorageGB(gb float64) int {
	if gb <= smallStorageGB {
		return int(math.Ceil(gb))
	}
	for _, size := range StorageBuckets {
		if gb <= float64(size) {
			return size
		}
	}
	return int(math.Ceil(gb))
}

// RoundRAMGB rounds a RAM size in GB to the advertised capacity, never below
// 1 and never above the largest bucket
func RoundRAMGB(gb float64) int {
	if gb <= 0 {
		return RAMBuckets[0]
	}
	for _, size := range RAMBuckets {
		if gb <= float64(size) {
			return size
		}
	}
	return RAMBuckets[len(RAMBuckets)-1]
}

// FormatStorageGB renders a rounded storage size as "N GB" or "N TB"
func FormatStorageGB(rounded int) string {
	if rounded >= gbPerTB {
		return fmt.Sprintf("%d TB", rounded/gbPerTB)
	}
	return fmt.Sprintf("%d GB", rounded)
}

// FormatStorage renders total filesystem bytes as an advertised capacity
func FormatStorage(totalBytes uint64) string {
	return FormatStorageGB(RoundStorageGB(BytesToGB(totalBytes)))
}

// FormatRAM renders total memory bytes as an advertised capacity
func FormatRAM(totalBytes uint64) string {
	return fmt.Sprintf("%d GB", RoundRAMGB(BytesToGB(totalBytes)))
}

// RoundCapacity rounds a battery capacity to the nearest mAh, halves away
// from zero. Non-positive and NaN inputs yield 0.
func RoundCapacity(mAh float64) int {
	if math.IsNaN(mAh) || mAh <= 0 {
		return 0
	}
	return int(math.Round(mAh))
}

// FormatBattery renders a battery capacity as "N mAh"
func FormatBattery(mAh float64) string {
	return fmt.Sprintf("%d mAh", RoundCapacity(mAh))
}

// NavigationBarHeight returns how many pixel rows the system bars take away
// from the real display height. It is 0 when the usable height is not smaller.
func NavigationBarHeight(usableHeight, realHeight int) int {
	if realHeight > usableHeight {
		return realHeight - usableHeight
	}
	return 0
}

// FormatResolution renders "W x H" where H includes the navigation bar
func FormatResolution(width, usableHeight, realHeight int) string {
	height := usableHeight + NavigationBarHeight(usableHeight, realHeight)
	return fmt.Sprintf("%d x %d", width, height)
}
