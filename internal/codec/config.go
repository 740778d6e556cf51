// Package codec drives the encoder and decoder as cooperative step
// machines: the caller repeatedly invokes NextPrintStep (encode) or
// NextProcessStep (decode) until the state's
// Step reaches zero, mirroring how a progress-reporting UI pumps the
// codec without blocking on any single stage.
package codec

import "fmt"

// Config collects every user-tunable option the codec recognizes.
type Config struct {
	DPI         int    // [40,300]
	DotPercent  int    // [50,100]
	Redundancy  int    // ngroup, [2,10]
	Compression int    // 0=none,1=fast,2=max
	Encryption  bool   // enables the AES stage
	Password    string // <=32 bytes, used only when Encryption is set
	PrintHeader bool
	PrintBorder bool
	BestQuality bool // enables a second, finer grid-lock pass on decode
	AutoSave    bool
	MarginDots  int
}

// DefaultConfig matches the original tool's out-of-the-box settings.
func DefaultConfig() Config {
	return Config{
		DPI:         300,
		DotPercent:  80,
		Redundancy:  5,
		Compression: 1,
		MarginDots:  300 / 4, // quarter-inch margin at 300 dpi
		PrintHeader: true,
		PrintBorder: true,
	}
}

// Validate checks option ranges per the configuration table.
func (c Config) Validate() error {
	if c.DPI < 40 || c.DPI > 300 {
		return fmt.Errorf("dpi %d out of range [40,300]", c.DPI)
	}
	if c.DotPercent < 50 || c.DotPercent > 100 {
		return fmt.Errorf("dotpercent %d out of range [50,100]", c.DotPercent)
	}
	if c.Redundancy < 2 || c.Redundancy > 10 {
		return fmt.Errorf("redundancy %d out of range [2,10]", c.Redundancy)
	}
	if c.Compression < 0 || c.Compression > 2 {
		return fmt.Errorf("compression %d out of range [0,2]", c.Compression)
	}
	if c.Encryption && len(c.Password) > 32 {
		return fmt.Errorf("password exceeds 32 bytes")
	}
	return nil
}
