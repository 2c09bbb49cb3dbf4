package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABIs of the creator factory and the per-creator subscription contract.
const factoryABIJSON = `[
  {"type":"function","name":"getProfile","stateMutability":"view",
   "inputs":[{"name":"creator","type":"address"}],
   "outputs":[{"name":"","type":"address"}]}
]`

const subscriptionABIJSON = `[
  {"type":"function","name":"isMember","stateMutability":"view",
   "inputs":[{"name":"user","type":"address"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"memberships","stateMutability":"view",
   "inputs":[{"name":"","type":"address"}],
   "outputs":[{"name":"expiry","type":"uint256"},{"name":"tierId","type":"uint256"}]},
  {"type":"function","name":"getTiers","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"tuple[]","components":[
     {"name":"name","type":"string"},
     {"name":"price","type":"uint256"},
     {"name":"duration","type":"uint256"},
     {"name":"active","type":"bool"}]}]},
  {"type":"function","name":"createTier","stateMutability":"nonpayable",
   "inputs":[{"name":"name","type":"string"},{"name":"price","type":"uint256"},{"name":"duration","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"subscribe","stateMutability":"payable",
   "inputs":[{"name":"tierId","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"withdraw","stateMutability":"nonpayable",
   "inputs":[],
   "outputs":[]}
]`

var (
	factoryABI      = mustParseABI(factoryABIJSON)
	subscriptionABI = mustParseABI(subscriptionABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("chain: invalid ABI: " + err.Error())
	}
	return parsed
}
