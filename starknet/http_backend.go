// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package starknet

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ava-labs/cairorpc/failures"
)

var _ Backend = (*HTTPBackend)(nil)

// HTTPBackend talks to a gateway (write path) and a feeder gateway (read
// path) over their HTTP APIs.
type HTTPBackend struct {
	gatewayURL       string
	feederGatewayURL string
	client           *http.Client
}

func NewHTTPBackend(gatewayURL, feederGatewayURL string, client *http.Client) *HTTPBackend {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBackend{
		gatewayURL:       strings.TrimSuffix(gatewayURL, "/"),
		feederGatewayURL: strings.TrimSuffix(feederGatewayURL, "/"),
		client:           client,
	}
}

func (b *HTTPBackend) CallContract(ctx context.Context, tx *InvokeFunction, block BlockRef) (*CallContractResponse, error) {
	if b.feederGatewayURL == "" {
		return nil, failures.Gatewayf("No feeder gateway URL. Set network, feeder_gateway_url or STARKNET_NETWORK.")
	}
	u, err := url.Parse(b.feederGatewayURL + "/call_contract")
	if err != nil {
		return nil, failures.WrapGateway(err, "invalid feeder gateway URL")
	}
	query := u.Query()
	switch {
	case block.Hash != "":
		query.Set("blockHash", block.Hash)
	case block.Number != nil:
		query.Set("blockNumber", strconv.FormatInt(*block.Number, 10))
	}
	u.RawQuery = query.Encode()

	var reply struct {
		Result json.RawMessage `json:"result"`
	}
	if err := b.post(ctx, u.String(), tx, &reply); err != nil {
		return nil, err
	}
	result, err := decodeResult(reply.Result)
	if err != nil {
		return nil, failures.WrapGateway(err, "couldn't decode call_contract result")
	}
	return &CallContractResponse{Result: result}, nil
}

func (b *HTTPBackend) AddTransaction(ctx context.Context, tx *InvokeFunction) (*AddTransactionResponse, error) {
	if b.gatewayURL == "" {
		return nil, failures.Gatewayf("No gateway URL. Set network, gateway_url or STARKNET_NETWORK.")
	}
	var reply struct {
		Code            string `json:"code"`
		TransactionHash string `json:"transaction_hash"`
	}
	if err := b.post(ctx, b.gatewayURL+"/add_transaction", tx, &reply); err != nil {
		return nil, err
	}
	return &AddTransactionResponse{Code: reply.Code, TransactionHash: reply.TransactionHash}, nil
}

func (b *HTTPBackend) post(ctx context.Context, endpoint string, body interface{}, reply interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return failures.WrapGateway(err, "couldn't encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return failures.WrapGateway(err, "couldn't build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return failures.WrapGateway(err, "request to %s failed", endpoint)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return failures.WrapGateway(err, "couldn't read response from %s", endpoint)
	}
	if resp.StatusCode/100 != 2 {
		return failures.Gatewayf("Gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, reply); err != nil {
		return failures.WrapGateway(err, "couldn't decode response from %s", endpoint)
	}
	return nil
}

// decodeResult keeps the result's shape: a list stays a list of values and
// a scalar stays a scalar. Numbers that fit in int64 become int64, anything
// else is returned as its string form.
func decodeResult(raw json.RawMessage) (interface{}, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		values := make([]interface{}, 0, len(list))
		for _, item := range list {
			v, err := decodeScalar(item)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return values, nil
	}
	return decodeScalar(raw)
}

func decodeScalar(raw json.RawMessage) (interface{}, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return nil, err
	}
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	return n.String(), nil
}
