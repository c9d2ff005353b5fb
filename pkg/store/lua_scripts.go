// pkg/store/lua_scripts.go

package store

// scriptChecksum folds sha1hex over a file's chunks in sequence order.
// KEYS[1] is the chunk index (a sorted set of sequence numbers), KEYS[2]
// the chunk key prefix. The digest of chunk k is sha1hex(digest[k-1] .. data[k]),
// starting from the empty string, so the result covers both content and order.
const scriptChecksum = `
local ns = redis.call('ZRANGE', KEYS[1], 0, -1)
local d = ''
for i = 1, #ns do
    local data = redis.call('GET', KEYS[2] .. ns[i])
    if not data then
        data = ''
    end
    d = redis.sha1hex(d .. data)
end
return d
`
