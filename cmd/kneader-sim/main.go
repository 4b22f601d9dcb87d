// cmd/kneader-sim/main.go
package main

import (
	"encoding/binary"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/tbrandon/mbserver"
	"go.uber.org/zap"

	"github.com/tamzrod/kneader-monitor/internal/logger"
)

const baseRegister = 100

// plant is the register image of every simulated unit.
type plant struct {
	mu       sync.Mutex
	kneaders map[uint8]*kneader
	regs     map[uint8][5]uint16
}

func (p *plant) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for unit, k := range p.kneaders {
		k.Tick()
		p.regs[unit] = k.Registers()
	}
}

// readHolding answers function code 3 from the unit's own register image.
// Registers outside 100..104 read as zero; unknown units get an exception.
func (p *plant) readHolding(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	unit := uint8(1)
	if f, ok := frame.(*mbserver.TCPFrame); ok {
		unit = f.Device
	}

	data := frame.GetData()
	if len(data) < 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	start := binary.BigEndian.Uint16(data[0:2])
	qty := binary.BigEndian.Uint16(data[2:4])
	if qty == 0 || qty > 125 {
		return []byte{}, &mbserver.IllegalDataValue
	}

	p.mu.Lock()
	regs, ok := p.regs[unit]
	p.mu.Unlock()
	if !ok {
		return []byte{}, &mbserver.SlaveDeviceFailure
	}

	out := make([]uint16, qty)
	for i := range out {
		r := int(start) + i - baseRegister
		if r >= 0 && r < len(regs) {
			out[i] = regs[r]
		}
	}
	return append([]byte{byte(qty * 2)}, mbserver.Uint16ToBytes(out)...), &mbserver.Success
}

func main() {
	addr := flag.StringP("address", "a", "0.0.0.0:1502", "Modbus TCP listen address")
	units := flag.IntP("kneaders", "n", 3, "number of simulated kneaders (unit 1..n)")
	tick := flag.Duration("tick", time.Second, "trajectory step")
	flag.Parse()

	lg, err := logger.New("info", "console", "kneader-sim")
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if *units < 1 || *units > 247 {
		lg.Fatal("kneaders must be 1..247", zap.Int("kneaders", *units))
	}

	p := &plant{
		kneaders: make(map[uint8]*kneader),
		regs:     make(map[uint8][5]uint16),
	}
	recipes := []float64{50, 100, 75}
	for i := 1; i <= *units; i++ {
		k := newKneader(recipes[(i-1)%len(recipes)], 5+i, 3)
		p.kneaders[uint8(i)] = k
		p.regs[uint8(i)] = k.Registers()
	}

	serv := mbserver.NewServer()
	serv.RegisterFunctionHandler(3, p.readHolding)
	if err := serv.ListenTCP(*addr); err != nil {
		lg.Fatal("listen failed", zap.String("address", *addr), zap.Error(err))
	}
	defer serv.Close()

	lg.Info("simulator listening",
		zap.String("address", *addr),
		zap.Int("kneaders", *units),
		zap.Duration("tick", *tick),
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	t := time.NewTicker(*tick)
	defer t.Stop()

	for {
		select {
		case <-sig:
			lg.Info("simulator stopped")
			return
		case <-t.C:
			p.tick()
		}
	}
}
