package fetch

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rickgao/futures-data/internal/model"
)

// dailySHFE fetches the SHFE JSON table: kx{yyyymmdd}.dat with rows under
// the o_curinstrument key. Field names there already match what the SHFE
// adapter reads (PRODUCTID, DELIVERYMONTH, ...).
func (c *Client) dailySHFE(ctx context.Context, date model.Date) ([]model.RawRecord, error) {
	u := fmt.Sprintf("%s/kx%s.dat", c.sources[model.SHFE], date.Compact())
	data, err := c.doWithRetry(ctx, model.SHFE, http.MethodGet, u, nil)
	if err != nil {
		if notPublished(err) {
			return nil, nil
		}
		return nil, err
	}

	var payload struct {
		Instruments []map[string]json.RawMessage `json:"o_curinstrument"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("shfe: parse table: %w", err)
	}

	records := make([]model.RawRecord, 0, len(payload.Instruments))
	for _, row := range payload.Instruments {
		fields := make(map[string]string, len(row))
		for k, v := range row {
			fields[k] = jsonScalar(v)
		}
		records = append(records, model.RawRecord{
			Exchange:  model.SHFE,
			TradeDate: date,
			Fields:    fields,
		})
	}
	return records, nil
}

// dailyCZCE fetches the CZCE pipe-delimited text file
// {yyyy}/{yyyymmdd}/FutureDataDaily.txt (GBK). The first line is a title,
// the second the column header.
func (c *Client) dailyCZCE(ctx context.Context, date model.Date) ([]model.RawRecord, error) {
	u := fmt.Sprintf("%s/%04d/%s/FutureDataDaily.txt", c.sources[model.CZCE], date.Year, date.Compact())
	data, err := c.doWithRetry(ctx, model.CZCE, http.MethodGet, u, nil)
	if err != nil {
		if notPublished(err) {
			return nil, nil
		}
		return nil, err
	}
	data, err = decodeGBK(data)
	if err != nil {
		return nil, fmt.Errorf("czce: %w", err)
	}

	return parseDelimited(model.CZCE, date, data, "|", 1)
}

// dailyDCE posts the "export day quotes" form and parses the returned
// tab-separated table (GBK). The form month field is zero-based.
func (c *Client) dailyDCE(ctx context.Context, date model.Date) ([]model.RawRecord, error) {
	form := url.Values{
		"dayQuotes.variety":    {"all"},
		"dayQuotes.trade_type": {"0"},
		"year":                 {fmt.Sprintf("%04d", date.Year)},
		"month":                {fmt.Sprintf("%d", int(date.Month)-1)},
		"day":                  {fmt.Sprintf("%02d", date.Day)},
		"exportFlag":           {"txt"},
	}
	data, err := c.doWithRetry(ctx, model.DCE, http.MethodPost, c.sources[model.DCE], form)
	if err != nil {
		if notPublished(err) {
			return nil, nil
		}
		return nil, err
	}
	data, err = decodeGBK(data)
	if err != nil {
		return nil, fmt.Errorf("dce: %w", err)
	}

	return parseDelimited(model.DCE, date, data, "\t", 0)
}

// dailyCFFEX fetches the CFFEX CSV table {yyyymm}/{dd}/index.csv (GBK).
func (c *Client) dailyCFFEX(ctx context.Context, date model.Date) ([]model.RawRecord, error) {
	u := fmt.Sprintf("%s/%04d%02d/%02d/index.csv", c.sources[model.CFFEX], date.Year, int(date.Month), date.Day)
	data, err := c.doWithRetry(ctx, model.CFFEX, http.MethodGet, u, nil)
	if err != nil {
		if notPublished(err) {
			return nil, nil
		}
		return nil, err
	}
	data, err = decodeGBK(data)
	if err != nil {
		return nil, fmt.Errorf("cffex: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cffex: parse csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	header := trimAll(rows[0])
	records := make([]model.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		fields := zipRow(header, trimAll(row))
		if fields == nil {
			continue
		}
		records = append(records, model.RawRecord{
			Exchange:  model.CFFEX,
			TradeDate: date,
			Fields:    fields,
		})
	}
	return records, nil
}

// GFEX JSON keys, renamed to the labels the GFEX adapter reads.
var gfexFieldNames = map[string]string{
	"variety":      "品种",
	"delivMonth":   "交割月份",
	"open":         "开盘价",
	"high":         "最高价",
	"low":          "最低价",
	"close":        "收盘价",
	"clearPrice":   "结算价",
	"volumn":       "成交量",
	"turnover":     "成交额",
	"openInterest": "持仓量",
}

// dailyGFEX posts the trade-date form to the GFEX quotes endpoint and maps
// the JSON rows onto the adapter's Chinese column labels.
func (c *Client) dailyGFEX(ctx context.Context, date model.Date) ([]model.RawRecord, error) {
	form := url.Values{
		"trade_date": {date.Compact()},
		"trade_type": {"0"},
	}
	data, err := c.doWithRetry(ctx, model.GFEX, http.MethodPost, c.sources[model.GFEX], form)
	if err != nil {
		if notPublished(err) {
			return nil, nil
		}
		return nil, err
	}

	var payload struct {
		Data []map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("gfex: parse table: %w", err)
	}

	records := make([]model.RawRecord, 0, len(payload.Data))
	for _, row := range payload.Data {
		fields := make(map[string]string, len(gfexFieldNames))
		for key, label := range gfexFieldNames {
			if v, ok := row[key]; ok {
				fields[label] = jsonScalar(v)
			}
		}
		records = append(records, model.RawRecord{
			Exchange:  model.GFEX,
			TradeDate: date,
			Fields:    fields,
		})
	}
	return records, nil
}

// parseDelimited reads a line-per-row table whose header row sits after
// skip leading lines. Short rows and the trailing empty column some
// sources emit are tolerated.
func parseDelimited(ex model.Exchange, date model.Date, data []byte, sep string, skip int) ([]model.RawRecord, error) {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(lines) <= skip {
		return nil, nil
	}
	lines = lines[skip:]

	var header []string
	var records []model.RawRecord
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := trimAll(strings.Split(line, sep))
		if header == nil {
			header = cells
			continue
		}
		fields := zipRow(header, cells)
		if fields == nil {
			continue
		}
		records = append(records, model.RawRecord{
			Exchange:  ex,
			TradeDate: date,
			Fields:    fields,
		})
	}
	return records, nil
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

// zipRow pairs header labels with row cells. Rows shorter than two cells
// carry no data and are dropped here rather than surfacing as adapter
// errors.
func zipRow(header, cells []string) map[string]string {
	if len(cells) < 2 {
		return nil
	}
	fields := make(map[string]string, len(header))
	for i, label := range header {
		if label == "" {
			continue
		}
		if i < len(cells) {
			fields[label] = cells[i]
		}
	}
	return fields
}

// jsonScalar renders a JSON scalar as the string the adapters parse.
// Numbers keep their source text so no precision is lost.
func jsonScalar(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if len(s) >= 2 && s[0] == '"' {
		var out string
		if err := json.Unmarshal(raw, &out); err == nil {
			return out
		}
	}
	if s == "null" {
		return ""
	}
	return s
}
