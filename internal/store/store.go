// Package store persists instruments and candles in SQLite and serves them
// as bar series.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/quantfarm/strata/internal/logger"
	"github.com/quantfarm/strata/internal/market"
)

// Instrument is one tradable symbol.
type Instrument struct {
	ID        uint   `gorm:"primaryKey"`
	Symbol    string `gorm:"uniqueIndex;size:32"`
	Name      string `gorm:"size:128"`
	CreatedAt time.Time
}

// Candle is one daily OHLCV row.
type Candle struct {
	ID           uint      `gorm:"primaryKey"`
	InstrumentID uint      `gorm:"uniqueIndex:idx_candle_instrument_ts"`
	Timestamp    time.Time `gorm:"uniqueIndex:idx_candle_instrument_ts"`
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       float64
	Amount       float64
}

// CandleMinute is one 1-minute OHLCV row. Wider intraday granularities are
// resampled from these at load time.
type CandleMinute struct {
	ID           uint      `gorm:"primaryKey"`
	InstrumentID uint      `gorm:"uniqueIndex:idx_candle_minute_instrument_ts"`
	Timestamp    time.Time `gorm:"uniqueIndex:idx_candle_minute_instrument_ts"`
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       float64
	Amount       float64
}

// Store is a market.BarSource backed by SQLite.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for an ephemeral database.
func Open(path string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Default()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Instrument{}, &Candle{}, &CandleMinute{}); err != nil {
		return nil, fmt.Errorf("migrate database %s: %w", path, err)
	}
	return &Store{db: db, log: log.Component("store")}, nil
}

// instrument resolves a symbol or fails with ErrInstrumentNotFound.
func (s *Store) instrument(ctx context.Context, symbol string) (*Instrument, error) {
	var inst Instrument
	err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&inst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("symbol %q: %w", symbol, market.ErrInstrumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup instrument %q: %w", symbol, err)
	}
	return &inst, nil
}

// EnsureInstrument finds or creates the instrument for a symbol.
func (s *Store) EnsureInstrument(ctx context.Context, symbol, name string) (*Instrument, error) {
	inst, err := s.instrument(ctx, symbol)
	if err == nil {
		return inst, nil
	}
	if !errors.Is(err, market.ErrInstrumentNotFound) {
		return nil, err
	}
	inst = &Instrument{Symbol: symbol, Name: name}
	if err := s.db.WithContext(ctx).Create(inst).Error; err != nil {
		return nil, fmt.Errorf("create instrument %q: %w", symbol, err)
	}
	return inst, nil
}

// SaveSeries upserts every bar of a series. Daily series land in the daily
// table; any intraday series must be 1-minute bars.
func (s *Store) SaveSeries(ctx context.Context, series *market.Series) error {
	if series.Granularity != market.GranularityDaily && series.Granularity != market.Granularity1m {
		return fmt.Errorf("save series: granularity %s not storable, use daily or 1m", series.Granularity)
	}
	inst, err := s.EnsureInstrument(ctx, series.Symbol, "")
	if err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	for _, bar := range series.Bars {
		if series.Granularity == market.GranularityDaily {
			row := Candle{InstrumentID: inst.ID, Timestamp: bar.Timestamp}
			fillRow(&row.Open, &row.High, &row.Low, &row.Close, &row.Volume, &row.Amount, bar)
			err = db.Where("instrument_id = ? AND timestamp = ?", inst.ID, bar.Timestamp).
				Assign(row).FirstOrCreate(&Candle{}).Error
		} else {
			row := CandleMinute{InstrumentID: inst.ID, Timestamp: bar.Timestamp}
			fillRow(&row.Open, &row.High, &row.Low, &row.Close, &row.Volume, &row.Amount, bar)
			err = db.Where("instrument_id = ? AND timestamp = ?", inst.ID, bar.Timestamp).
				Assign(row).FirstOrCreate(&CandleMinute{}).Error
		}
		if err != nil {
			return fmt.Errorf("save bar %s/%s: %w", series.Symbol, bar.Timestamp.Format(time.RFC3339), err)
		}
	}
	s.log.Info("series saved", "symbol", series.Symbol,
		"granularity", series.Granularity, "bars", series.Len())
	return nil
}

func fillRow(open, high, low, close, volume, amount *float64, bar market.Bar) {
	*open = bar.Open.InexactFloat64()
	*high = bar.High.InexactFloat64()
	*low = bar.Low.InexactFloat64()
	*close = bar.Close.InexactFloat64()
	*volume = bar.Volume.InexactFloat64()
	*amount = bar.Amount.InexactFloat64()
}

// GetBars implements market.BarSource. Daily bars read from the daily table;
// intraday granularities read 1-minute rows and resample to the target
// width.
func (s *Store) GetBars(ctx context.Context, symbol string, start, end time.Time, granularity market.Granularity) (*market.Series, error) {
	if !granularity.Valid() {
		return nil, fmt.Errorf("granularity %q not supported", granularity)
	}
	inst, err := s.instrument(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if granularity == market.GranularityDaily {
		return s.dailyBars(ctx, inst, symbol, start, end)
	}
	return s.minuteBars(ctx, inst, symbol, start, end, granularity)
}

func (s *Store) dailyBars(ctx context.Context, inst *Instrument, symbol string, start, end time.Time) (*market.Series, error) {
	var rows []Candle
	err := s.db.WithContext(ctx).
		Where("instrument_id = ? AND timestamp >= ? AND timestamp <= ?", inst.ID, start, end).
		Order("timestamp asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load daily candles %q: %w", symbol, err)
	}
	if len(rows) == 0 {
		return nil, s.rangeError(ctx, inst, symbol, market.GranularityDaily, start, end)
	}

	bars := make([]market.Bar, len(rows))
	for i, row := range rows {
		bars[i] = rowBar(row.Timestamp, row.Open, row.High, row.Low, row.Close, row.Volume, row.Amount)
	}
	return market.NewSeries(symbol, market.GranularityDaily, bars)
}

func (s *Store) minuteBars(ctx context.Context, inst *Instrument, symbol string, start, end time.Time, granularity market.Granularity) (*market.Series, error) {
	var rows []CandleMinute
	err := s.db.WithContext(ctx).
		Where("instrument_id = ? AND timestamp >= ? AND timestamp <= ?", inst.ID, start, end).
		Order("timestamp asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load minute candles %q: %w", symbol, err)
	}
	if len(rows) == 0 {
		return nil, s.rangeError(ctx, inst, symbol, granularity, start, end)
	}

	bars := make([]market.Bar, len(rows))
	for i, row := range rows {
		bars[i] = rowBar(row.Timestamp, row.Open, row.High, row.Low, row.Close, row.Volume, row.Amount)
	}
	series, err := market.NewSeries(symbol, market.Granularity1m, bars)
	if err != nil {
		return nil, err
	}
	if granularity == market.Granularity1m {
		return series, nil
	}
	return market.Resample(series, granularity)
}

func rowBar(ts time.Time, open, high, low, close, volume, amount float64) market.Bar {
	return market.Bar{
		Timestamp: ts,
		Open:      decimal.NewFromFloat(open),
		High:      decimal.NewFromFloat(high),
		Low:       decimal.NewFromFloat(low),
		Close:     decimal.NewFromFloat(close),
		Volume:    decimal.NewFromFloat(volume),
		Amount:    decimal.NewFromFloat(amount),
	}
}

// rangeError describes what the store actually holds for the instrument so
// the caller can see why the requested window came back empty.
func (s *Store) rangeError(ctx context.Context, inst *Instrument, symbol string, granularity market.Granularity, start, end time.Time) error {
	rerr := &market.RangeError{
		Symbol:      symbol,
		Granularity: granularity,
		Start:       start,
		End:         end,
	}

	var (
		count       int64
		first, last time.Time
		err         error
	)
	if granularity == market.GranularityDaily {
		count, first, last, err = s.dailyBounds(ctx, inst.ID)
	} else {
		count, first, last, err = s.minuteBounds(ctx, inst.ID)
	}
	if err != nil {
		// The range diagnostics are best-effort; the empty-window error
		// stands on its own.
		s.log.WithError(err).Warn("stored range lookup failed", "symbol", symbol)
		return rerr
	}
	rerr.HaveBars = int(count)
	rerr.HaveStart = first
	rerr.HaveEnd = last
	return rerr
}

// dailyBounds returns the row count and timestamp extremes of the stored
// daily candles for one instrument. A zero count yields zero bounds.
func (s *Store) dailyBounds(ctx context.Context, instID uint) (int64, time.Time, time.Time, error) {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&Candle{}).Where("instrument_id = ?", instID).Count(&count).Error; err != nil || count == 0 {
		return 0, time.Time{}, time.Time{}, err
	}
	var oldest, newest Candle
	if err := db.Where("instrument_id = ?", instID).Order("timestamp asc").First(&oldest).Error; err != nil {
		return count, time.Time{}, time.Time{}, err
	}
	if err := db.Where("instrument_id = ?", instID).Order("timestamp desc").First(&newest).Error; err != nil {
		return count, time.Time{}, time.Time{}, err
	}
	return count, oldest.Timestamp, newest.Timestamp, nil
}

// minuteBounds is dailyBounds over the 1-minute table.
func (s *Store) minuteBounds(ctx context.Context, instID uint) (int64, time.Time, time.Time, error) {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&CandleMinute{}).Where("instrument_id = ?", instID).Count(&count).Error; err != nil || count == 0 {
		return 0, time.Time{}, time.Time{}, err
	}
	var oldest, newest CandleMinute
	if err := db.Where("instrument_id = ?", instID).Order("timestamp asc").First(&oldest).Error; err != nil {
		return count, time.Time{}, time.Time{}, err
	}
	if err := db.Where("instrument_id = ?", instID).Order("timestamp desc").First(&newest).Error; err != nil {
		return count, time.Time{}, time.Time{}, err
	}
	return count, oldest.Timestamp, newest.Timestamp, nil
}
